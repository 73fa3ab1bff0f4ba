package validators_test

import (
	"context"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/parag-may4/terraform-provider-ucsldap/internal/provider/validators"
)

func TestObjectNameValidator(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		val         types.String
		expectError bool
	}{
		"valid hostname": {
			val:         types.StringValue("ldap01.example.com"),
			expectError: false,
		},
		"valid simple name": {
			val:         types.StringValue("primary"),
			expectError: false,
		},
		"valid group dn style": {
			val:         types.StringValue("CN=admins,OU=groups,DC=example,DC=com"),
			expectError: false,
		},
		"invalid empty": {
			val:         types.StringValue(""),
			expectError: true,
		},
		"invalid embedded space": {
			val:         types.StringValue("bad name"),
			expectError: true,
		},
		"invalid embedded slash": {
			val:         types.StringValue("bad/name"),
			expectError: true,
		},
		"null value": {
			val:         types.StringNull(),
			expectError: false,
		},
		"unknown value": {
			val:         types.StringUnknown(),
			expectError: false,
		},
	}

	for name, test := range testCases {
		test := test
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			request := validator.StringRequest{
				Path:        path.Root("test"),
				ConfigValue: test.val,
			}
			response := validator.StringResponse{}

			validators.ObjectName().ValidateString(context.Background(), request, &response)

			if !response.Diagnostics.HasError() && test.expectError {
				t.Fatal("expected error, got no error")
			}

			if response.Diagnostics.HasError() && !test.expectError {
				t.Fatalf("got unexpected error: %s", response.Diagnostics)
			}
		})
	}
}

func TestObjectNameValidatorDescription(t *testing.T) {
	validator := validators.ObjectName()

	expected := "value must be a valid managed object name"
	if validator.Description(context.Background()) != expected {
		t.Errorf("expected description %q, got %q", expected, validator.Description(context.Background()))
	}

	if validator.MarkdownDescription(context.Background()) != expected {
		t.Errorf("expected markdown description %q, got %q", expected, validator.MarkdownDescription(context.Background()))
	}
}

package validators

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"

	"github.com/parag-may4/terraform-provider-ucsldap/internal/ucs"
)

// Ensure the implementation satisfies the expected interface.
var _ validator.String = objectNameValidator{}

// objectNameValidator validates that a string is a legal managed object name.
type objectNameValidator struct{}

// Description describes the validation in plain text.
func (v objectNameValidator) Description(_ context.Context) string {
	return "value must be a valid managed object name"
}

// MarkdownDescription describes the validation in Markdown.
func (v objectNameValidator) MarkdownDescription(ctx context.Context) string {
	return v.Description(ctx)
}

// ValidateString performs the validation.
func (v objectNameValidator) ValidateString(ctx context.Context, request validator.StringRequest, response *validator.StringResponse) {
	// Skip validation for unknown or null values
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	if err := ucs.ValidateObjectName(request.ConfigValue.ValueString()); err != nil {
		response.Diagnostics.AddAttributeError(
			request.Path,
			"Invalid Object Name",
			fmt.Sprintf("The value %q is not a valid managed object name: %s",
				request.ConfigValue.ValueString(), err),
		)
	}
}

// ObjectName returns a validator which ensures that any configured attribute
// value is a legal managed object name as embedded in a relative name segment.
//
// Unknown values and null values are skipped from validation.
func ObjectName() validator.String {
	return objectNameValidator{}
}

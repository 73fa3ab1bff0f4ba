package provider_test

import (
	"context"
	"testing"

	fwresource "github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"

	this "github.com/parag-may4/terraform-provider-ucsldap/internal/provider"
)

// TestLDAPProviderGroupResourceMetadata tests the resource type name.
func TestLDAPProviderGroupResourceMetadata(t *testing.T) {
	r := this.NewLDAPProviderGroupResource()

	req := fwresource.MetadataRequest{ProviderTypeName: "ucsldap"}
	resp := &fwresource.MetadataResponse{}

	r.Metadata(context.Background(), req, resp)

	if resp.TypeName != "ucsldap_provider_group" {
		t.Errorf("Expected TypeName 'ucsldap_provider_group', got %s", resp.TypeName)
	}
}

// TestLDAPProviderGroupResourceSchema tests the resource schema.
func TestLDAPProviderGroupResourceSchema(t *testing.T) {
	r := this.NewLDAPProviderGroupResource()

	req := fwresource.SchemaRequest{}
	resp := &fwresource.SchemaResponse{}

	r.Schema(context.Background(), req, resp)

	if resp.Diagnostics.HasError() {
		t.Fatalf("Schema creation failed: %v", resp.Diagnostics)
	}

	expectedAttributes := []string{"id", "name", "description", "providers", "dn"}
	for _, attr := range expectedAttributes {
		if _, exists := resp.Schema.Attributes[attr]; !exists {
			t.Errorf("Expected attribute %s not found in schema", attr)
		}
	}

	if !resp.Schema.Attributes["name"].IsRequired() {
		t.Error("Expected name to be required")
	}
	if !resp.Schema.Attributes["dn"].IsComputed() {
		t.Error("Expected dn to be computed")
	}
}

// TestAccLDAPProviderGroupResource exercises the full lifecycle against a
// real UCS Central instance.
func TestAccLDAPProviderGroupResource(t *testing.T) {
	this.SkipIfNotAccTest(t)

	gen := this.NewTestDataGenerator()
	providerName := this.GenerateTestName(this.TestProviderPrefix)
	groupName := this.GenerateTestName(this.TestProviderGroupPrefix)

	resource.Test(t, resource.TestCase{
		PreCheck:                 func() { this.SkipIfNotAccTest(t) },
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories(),
		Steps: []resource.TestStep{
			// Create the referenced provider and the group together
			{
				Config: this.TestProviderConfig() +
					gen.GenerateProviderConfig(providerName) +
					gen.GenerateProviderGroupConfig(groupName, providerName),
				Check: resource.ComposeAggregateTestCheckFunc(
					this.TestCheckResourceExists("ucsldap_provider_group.test"),
					resource.TestCheckResourceAttr("ucsldap_provider_group.test", "name", groupName),
					resource.TestCheckResourceAttr("ucsldap_provider_group.test", "providers.#", "1"),
					resource.TestCheckResourceAttrSet("ucsldap_provider_group.test", "dn"),
				),
			},
			// Drop the reference
			{
				Config: this.TestProviderConfig() +
					gen.GenerateProviderConfig(providerName) +
					`
resource "ucsldap_provider_group" "test" {
  name = "` + groupName + `"
}`,
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckNoResourceAttr("ucsldap_provider_group.test", "providers.#"),
				),
			},
			// Import by name
			{
				ResourceName:      "ucsldap_provider_group.test",
				ImportState:       true,
				ImportStateId:     groupName,
				ImportStateVerify: true,
			},
		},
	})
}

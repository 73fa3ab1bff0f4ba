package provider_test

import (
	"context"
	"fmt"
	"testing"

	fwresource "github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"

	this "github.com/parag-may4/terraform-provider-ucsldap/internal/provider"
)

// TestLDAPGroupMapResourceMetadata tests the resource type name.
func TestLDAPGroupMapResourceMetadata(t *testing.T) {
	r := this.NewLDAPGroupMapResource()

	req := fwresource.MetadataRequest{ProviderTypeName: "ucsldap"}
	resp := &fwresource.MetadataResponse{}

	r.Metadata(context.Background(), req, resp)

	if resp.TypeName != "ucsldap_group_map" {
		t.Errorf("Expected TypeName 'ucsldap_group_map', got %s", resp.TypeName)
	}
}

// TestLDAPGroupMapResourceSchema tests the resource schema.
func TestLDAPGroupMapResourceSchema(t *testing.T) {
	r := this.NewLDAPGroupMapResource()

	req := fwresource.SchemaRequest{}
	resp := &fwresource.SchemaResponse{}

	r.Schema(context.Background(), req, resp)

	if resp.Diagnostics.HasError() {
		t.Fatalf("Schema creation failed: %v", resp.Diagnostics)
	}

	expectedAttributes := []string{"id", "name", "description", "roles", "locales", "dn"}
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

// TestAccLDAPGroupMapResource exercises the full lifecycle against a real
// UCS Central instance.
func TestAccLDAPGroupMapResource(t *testing.T) {
	this.SkipIfNotAccTest(t)

	gen := this.NewTestDataGenerator()
	name := fmt.Sprintf("CN=%s,OU=groups,DC=example,DC=com",
		this.GenerateTestName(this.TestGroupMapPrefix))

	resource.Test(t, resource.TestCase{
		PreCheck:                 func() { this.SkipIfNotAccTest(t) },
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories(),
		Steps: []resource.TestStep{
			// Create with one role
			{
				Config: this.TestProviderConfig() + gen.GenerateGroupMapConfig(name, "read-only"),
				Check: resource.ComposeAggregateTestCheckFunc(
					this.TestCheckResourceExists("ucsldap_group_map.test"),
					resource.TestCheckResourceAttr("ucsldap_group_map.test", "name", name),
					resource.TestCheckResourceAttr("ucsldap_group_map.test", "roles.#", "1"),
					resource.TestCheckResourceAttrSet("ucsldap_group_map.test", "dn"),
				),
			},
			// Reassign roles
			{
				Config: this.TestProviderConfig() + gen.GenerateGroupMapConfig(name, "aaa", "operations"),
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("ucsldap_group_map.test", "roles.#", "2"),
					resource.TestCheckTypeSetElemAttr("ucsldap_group_map.test", "roles.*", "aaa"),
					resource.TestCheckTypeSetElemAttr("ucsldap_group_map.test", "roles.*", "operations"),
				),
			},
			// Import by name
			{
				ResourceName:      "ucsldap_group_map.test",
				ImportState:       true,
				ImportStateId:     name,
				ImportStateVerify: true,
			},
		},
	})
}

package provider_test

import (
	"context"
	"strings"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/providerserver"
	"github.com/hashicorp/terraform-plugin-go/tfprotov6"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"

	this "github.com/parag-may4/terraform-provider-ucsldap/internal/provider"
)

// TestProviderMetadata tests the provider metadata.
func TestProviderMetadata(t *testing.T) {
	p := &this.UCSLDAPProvider{Version: "test"}

	req := provider.MetadataRequest{}
	resp := &provider.MetadataResponse{}

	p.Metadata(context.Background(), req, resp)

	if resp.TypeName != "ucsldap" {
		t.Errorf("Expected TypeName 'ucsldap', got %s", resp.TypeName)
	}

	if resp.Version != "test" {
		t.Errorf("Expected Version 'test', got %s", resp.Version)
	}
}

// TestProviderSchema tests the provider schema.
func TestProviderSchema(t *testing.T) {
	p := &this.UCSLDAPProvider{}

	req := provider.SchemaRequest{}
	resp := &provider.SchemaResponse{}

	p.Schema(context.Background(), req, resp)

	if resp.Diagnostics.HasError() {
		t.Fatalf("Schema creation failed: %v", resp.Diagnostics)
	}

	// Test that expected attributes are present
	expectedAttributes := []string{
		"endpoint", "port",
		"username", "password",
		"device_profile", "skip_tls_verify",
		"timeout", "max_retries", "initial_backoff",
	}

	for _, attr := range expectedAttributes {
		if _, exists := resp.Schema.Attributes[attr]; !exists {
			t.Errorf("Expected attribute %s not found in schema", attr)
		}
	}
}

// TestProviderResources tests the provider resources.
func TestProviderResources(t *testing.T) {
	p := &this.UCSLDAPProvider{}

	resources := p.Resources(context.Background())

	expectedResources := []string{
		"ucsldap_provider",
		"ucsldap_group_map",
		"ucsldap_provider_group",
	}

	if len(resources) != len(expectedResources) {
		t.Errorf("Expected %d resources, got %d", len(expectedResources), len(resources))
	}

	// Create instances to test they can be created without errors
	for i, resourceFunc := range resources {
		resource := resourceFunc()
		if resource == nil {
			t.Errorf("Resource function %d returned nil", i)
		}
	}
}

// TestProviderDataSources tests the provider data sources.
func TestProviderDataSources(t *testing.T) {
	p := &this.UCSLDAPProvider{}

	dataSources := p.DataSources(context.Background())

	expectedDataSources := []string{
		"ucsldap_provider",
		"ucsldap_group_map",
	}

	if len(dataSources) != len(expectedDataSources) {
		t.Errorf("Expected %d data sources, got %d", len(expectedDataSources), len(dataSources))
	}

	// Create instances to test they can be created without errors
	for i, dataSourceFunc := range dataSources {
		dataSource := dataSourceFunc()
		if dataSource == nil {
			t.Errorf("Data source function %d returned nil", i)
		}
	}
}

// TestProviderConfigValidators tests the provider config validators.
func TestProviderConfigValidators(t *testing.T) {
	p := &this.UCSLDAPProvider{}

	validators := p.ConfigValidators(context.Background())

	if len(validators) == 0 {
		t.Error("Expected config validators, got none")
	}

	for i, validator := range validators {
		if validator == nil {
			t.Errorf("Config validator %d is nil", i)
		}
	}
}

// TestNewProvider tests the New provider function.
func TestNewProvider(t *testing.T) {
	testCases := []struct {
		name    string
		version string
	}{
		{
			name:    "test version",
			version: "test",
		},
		{
			name:    "dev version",
			version: "dev",
		},
		{
			name:    "release version",
			version: "1.0.0",
		},
		{
			name:    "empty version",
			version: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			providerFunc := this.New(tc.version)
			if providerFunc == nil {
				t.Fatal("New() returned nil")
			}

			provider := providerFunc()
			if provider == nil {
				t.Fatal("Provider function returned nil")
			}

			ucsProvider, ok := provider.(*this.UCSLDAPProvider)
			if !ok {
				t.Fatal("Provider is not of type *UCSLDAPProvider")
			}

			if ucsProvider.Version != tc.version {
				t.Errorf("Expected version %s, got %s", tc.version, ucsProvider.Version)
			}
		})
	}
}

// TestProviderServer tests provider server creation.
func TestProviderServer(t *testing.T) {
	providerFunc := this.New("test")

	serverFactory := providerserver.NewProtocol6WithError(providerFunc())
	if serverFactory == nil {
		t.Fatal("Provider server factory is nil")
	}

	server, err := serverFactory()
	if err != nil {
		t.Fatalf("Failed to create provider server: %v", err)
	}

	if server == nil {
		t.Fatal("Provider server is nil")
	}
}

// TestProviderConfigValidation tests provider configuration validation.
func TestProviderConfigValidation(t *testing.T) {
	testCases := []struct {
		name   string
		config string
	}{
		{
			name: "full config",
			config: `
provider "ucsldap" {
  endpoint = "ucs-central.example.com"
  username = "admin"
  password = "password"
}`,
		},
		{
			name: "config with device profile",
			config: `
provider "ucsldap" {
  endpoint       = "ucs-central.example.com"
  username       = "admin"
  password       = "password"
  device_profile = "branch"
}`,
		},
		{
			name: "config with tuning",
			config: `
provider "ucsldap" {
  endpoint        = "ucs-central.example.com"
  username        = "admin"
  password        = "password"
  skip_tls_verify = true
  timeout         = 60
  max_retries     = 5
  initial_backoff = 250
}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resource.Test(t, resource.TestCase{
				ProtoV6ProviderFactories: map[string]func() (tfprotov6.ProviderServer, error){
					"ucsldap": providerserver.NewProtocol6WithError(this.New("test")()),
				},
				Steps: []resource.TestStep{
					{
						Config:   tc.config,
						PlanOnly: true,
					},
				},
			})
		})
	}
}

// TestProviderEnvironmentVariables tests environment variable handling.
func TestProviderEnvironmentVariables(t *testing.T) {
	envVars := []string{
		"UCS_ENDPOINT",
		"UCS_PORT",
		"UCS_USERNAME",
		"UCS_PASSWORD",
		"UCS_DEVICE_PROFILE",
		"UCS_SKIP_TLS_VERIFY",
	}

	// Test that environment variables are documented
	p := &this.UCSLDAPProvider{}
	req := provider.SchemaRequest{}
	resp := &provider.SchemaResponse{}

	p.Schema(context.Background(), req, resp)

	for _, envVar := range envVars {
		found := false
		for _, attr := range resp.Schema.Attributes {
			if attr.GetMarkdownDescription() != "" {
				if strings.Contains(attr.GetMarkdownDescription(), envVar) {
					found = true
					break
				}
			}
		}

		if !found {
			t.Errorf("Environment variable %s not found in schema documentation", envVar)
		}
	}
}

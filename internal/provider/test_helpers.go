package provider

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
	"github.com/hashicorp/terraform-plugin-testing/terraform"
)

// Test environment configuration constants.
const (
	// Environment variables for test configuration.
	EnvTestEndpoint      = "UCS_TEST_ENDPOINT"
	EnvTestPort          = "UCS_TEST_PORT"
	EnvTestUsername      = "UCS_TEST_USERNAME"
	EnvTestPassword      = "UCS_TEST_PASSWORD"
	EnvTestDeviceProfile = "UCS_TEST_DEVICE_PROFILE"

	// Default values for testing.
	DefaultTestDeviceProfile = "default"

	// Test object name prefixes to avoid conflicts.
	TestProviderPrefix      = "tf-test-prov-"
	TestGroupMapPrefix      = "tf-test-map-"
	TestProviderGroupPrefix = "tf-test-pg-"
)

// TestConfig holds common test configuration.
type TestConfig struct {
	Endpoint      string
	Port          string
	Username      string
	Password      string
	DeviceProfile string
}

// GetTestConfig returns the test configuration from environment variables.
func GetTestConfig() *TestConfig {
	return &TestConfig{
		Endpoint:      os.Getenv(EnvTestEndpoint),
		Port:          os.Getenv(EnvTestPort),
		Username:      os.Getenv(EnvTestUsername),
		Password:      os.Getenv(EnvTestPassword),
		DeviceProfile: getEnvWithDefault(EnvTestDeviceProfile, DefaultTestDeviceProfile),
	}
}

// IsAccTest returns true if acceptance tests should run.
func IsAccTest() bool {
	return os.Getenv("TF_ACC") != ""
}

// SkipIfNotAccTest skips the test if TF_ACC is not set.
func SkipIfNotAccTest(t *testing.T) {
	if !IsAccTest() {
		t.Skip("Skipping acceptance test - set TF_ACC=1 to run")
	}
}

// testAccPreCheckWithConfig validates the test environment and returns the
// configuration acceptance tests run against.
func testAccPreCheckWithConfig(t *testing.T) *TestConfig {
	SkipIfNotAccTest(t)

	config := GetTestConfig()

	if config.Endpoint == "" {
		t.Skipf("Skipping test: %s must be set to a real UCS Central instance", EnvTestEndpoint)
	}
	if config.Username == "" {
		t.Skipf("Skipping test: %s must be set", EnvTestUsername)
	}
	if config.Password == "" {
		t.Skipf("Skipping test: %s must be set", EnvTestPassword)
	}

	return config
}

// TestProviderConfig generates provider configuration for tests.
func TestProviderConfig() string {
	config := GetTestConfig()

	var providerConfig strings.Builder
	providerConfig.WriteString("provider \"ucsldap\" {\n")
	providerConfig.WriteString(fmt.Sprintf("  endpoint = %q\n", config.Endpoint))

	if config.Port != "" {
		providerConfig.WriteString(fmt.Sprintf("  port = %s\n", config.Port))
	}

	providerConfig.WriteString(fmt.Sprintf("  username = %q\n", config.Username))
	providerConfig.WriteString(fmt.Sprintf("  password = %q\n", config.Password))

	if config.DeviceProfile != DefaultTestDeviceProfile {
		providerConfig.WriteString(fmt.Sprintf("  device_profile = %q\n", config.DeviceProfile))
	}

	providerConfig.WriteString("  skip_tls_verify = true\n")
	providerConfig.WriteString("}\n")
	return providerConfig.String()
}

// GenerateTestName generates a unique test name with timestamp.
func GenerateTestName(prefix string) string {
	timestamp := time.Now().Format("20060102-150405")
	shortUUID := uuid.New().String()[:8]
	return fmt.Sprintf("%s%s-%s", prefix, timestamp, shortUUID)
}

// TestDataGenerator provides test data generation utilities.
type TestDataGenerator struct {
	config *TestConfig
}

// NewTestDataGenerator creates a new test data generator.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		config: GetTestConfig(),
	}
}

// GenerateProviderConfig generates a test LDAP provider configuration.
func (g *TestDataGenerator) GenerateProviderConfig(name string) string {
	return fmt.Sprintf(`
resource "ucsldap_provider" "test" {
  name    = %[1]q
  root_dn = "CN=binduser,DC=example,DC=com"
  base_dn = "DC=example,DC=com"
  filter  = "sAMAccountName=$userid"
  vendor  = "MS-AD"
}`, name)
}

// GenerateProviderConfigWithGroupRule generates a test LDAP provider
// configuration with a group rule.
func (g *TestDataGenerator) GenerateProviderConfigWithGroupRule(name string) string {
	return fmt.Sprintf(`
resource "ucsldap_provider" "test" {
  name    = %[1]q
  root_dn = "CN=binduser,DC=example,DC=com"
  base_dn = "DC=example,DC=com"
  vendor  = "MS-AD"

  group_rule = {
    authorization = "enable"
    traversal     = "recursive"
    target_attr   = "memberOf"
  }
}`, name)
}

// GenerateGroupMapConfig generates a test group map configuration.
func (g *TestDataGenerator) GenerateGroupMapConfig(name string, roles ...string) string {
	quoted := make([]string, len(roles))
	for i, role := range roles {
		quoted[i] = fmt.Sprintf("%q", role)
	}
	return fmt.Sprintf(`
resource "ucsldap_group_map" "test" {
  name  = %[1]q
  roles = [%[2]s]
}`, name, strings.Join(quoted, ", "))
}

// GenerateProviderGroupConfig generates a test provider group configuration
// referencing the named provider.
func (g *TestDataGenerator) GenerateProviderGroupConfig(name, providerName string) string {
	return fmt.Sprintf(`
resource "ucsldap_provider_group" "test" {
  name = %[1]q

  providers = [
    {
      name  = %[2]q
      order = "1"
    },
  ]
}`, name, providerName)
}

// TestCheckResourceExists verifies that a resource is present in state with a
// non-empty identifier.
func TestCheckResourceExists(resourceName string) resource.TestCheckFunc {
	return func(s *terraform.State) error {
		rs, ok := s.RootModule().Resources[resourceName]
		if !ok {
			return fmt.Errorf("resource not found in state: %s", resourceName)
		}
		if rs.Primary.ID == "" {
			return fmt.Errorf("resource %s has no ID set", resourceName)
		}
		return nil
	}
}

// TestCheckResourceDN verifies that a resource records the expected DN.
func TestCheckResourceDN(resourceName, expectedDN string) resource.TestCheckFunc {
	return resource.TestCheckResourceAttr(resourceName, "dn", expectedDN)
}

func getEnvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

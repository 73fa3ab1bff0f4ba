package provider

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/providervalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/parag-may4/terraform-provider-ucsldap/internal/ucs"
)

// Ensure UCSLDAPProvider satisfies various provider interfaces.
var _ provider.Provider = &UCSLDAPProvider{}
var _ provider.ProviderWithConfigValidators = &UCSLDAPProvider{}

// UCSLDAPProvider defines the provider implementation.
type UCSLDAPProvider struct {
	// Version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	Version string
}

// UCSLDAPProviderModel describes the provider data model.
type UCSLDAPProviderModel struct {
	// Connection settings
	Endpoint types.String `tfsdk:"endpoint"`
	Port     types.Int64  `tfsdk:"port"`

	// Authentication settings
	Username types.String `tfsdk:"username"`
	Password types.String `tfsdk:"password"`

	// Addressing settings
	DeviceProfile types.String `tfsdk:"device_profile"`

	// TLS settings
	SkipTLSVerify types.Bool `tfsdk:"skip_tls_verify"`

	// Timeouts and retries
	Timeout        types.Int64 `tfsdk:"timeout"`
	MaxRetries     types.Int64 `tfsdk:"max_retries"`
	InitialBackoff types.Int64 `tfsdk:"initial_backoff"`
}

func (p *UCSLDAPProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "ucsldap"
	resp.Version = p.Version
}

func (p *UCSLDAPProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Manage LDAP authentication configuration on Cisco UCS Central through its XML API.",
		Attributes: map[string]schema.Attribute{
			"endpoint": schema.StringAttribute{
				MarkdownDescription: "UCS Central hostname or IP address. Can also be set via the `UCS_ENDPOINT` environment variable.",
				Optional:            true,
			},
			"port": schema.Int64Attribute{
				MarkdownDescription: "HTTPS port of the XML API (default: 443). Can also be set via the `UCS_PORT` environment variable.",
				Optional:            true,
			},
			"username": schema.StringAttribute{
				MarkdownDescription: "Username for API authentication. Can also be set via the `UCS_USERNAME` environment variable.",
				Optional:            true,
			},
			"password": schema.StringAttribute{
				MarkdownDescription: "Password for API authentication. Can also be set via the `UCS_PASSWORD` environment variable.",
				Optional:            true,
				Sensitive:           true,
			},
			"device_profile": schema.StringAttribute{
				MarkdownDescription: "Device profile holding the LDAP configuration (default: `default`). Can also be set via the `UCS_DEVICE_PROFILE` environment variable.",
				Optional:            true,
			},
			"skip_tls_verify": schema.BoolAttribute{
				MarkdownDescription: "Skip TLS certificate verification (default: `false`). Can also be set via the `UCS_SKIP_TLS_VERIFY` environment variable.",
				Optional:            true,
			},
			"timeout": schema.Int64Attribute{
				MarkdownDescription: "API request timeout in seconds (default: 30).",
				Optional:            true,
			},
			"max_retries": schema.Int64Attribute{
				MarkdownDescription: "Maximum number of retries for transient API failures (default: 3).",
				Optional:            true,
			},
			"initial_backoff": schema.Int64Attribute{
				MarkdownDescription: "Initial retry backoff in milliseconds (default: 500). Backoff doubles on each attempt.",
				Optional:            true,
			},
		},
	}
}

func (p *UCSLDAPProvider) ConfigValidators(ctx context.Context) []provider.ConfigValidator {
	return []provider.ConfigValidator{
		providervalidator.RequiredTogether(
			path.MatchRoot("username"),
			path.MatchRoot("password"),
		),
	}
}

// configureLogging sets up structured logging fields for the provider
func (p *UCSLDAPProvider) configureLogging(ctx context.Context) context.Context {
	ctx = tflog.SetField(ctx, "provider", "ucsldap")
	ctx = tflog.SetField(ctx, "provider_version", p.Version)
	return ctx
}

func (p *UCSLDAPProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var config UCSLDAPProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &config)...)
	if resp.Diagnostics.HasError() {
		return
	}

	ctx = p.configureLogging(ctx)
	tflog.Info(ctx, "Configuring UCS Central LDAP provider")

	endpoint := getStringValue(config.Endpoint, "UCS_ENDPOINT", "")
	if endpoint == "" {
		resp.Diagnostics.AddAttributeError(
			path.Root("endpoint"),
			"Missing UCS Central Endpoint",
			"The provider requires an endpoint. Set the endpoint attribute "+
				"or the UCS_ENDPOINT environment variable.",
		)
		return
	}

	sessionConfig := ucs.DefaultSessionConfig()
	sessionConfig.Endpoint = endpoint
	sessionConfig.Port = int(getInt64Value(config.Port, "UCS_PORT", int64(sessionConfig.Port)))
	sessionConfig.Username = getStringValue(config.Username, "UCS_USERNAME", "")
	sessionConfig.Password = getStringValue(config.Password, "UCS_PASSWORD", "")
	sessionConfig.DeviceProfile = getStringValue(config.DeviceProfile, "UCS_DEVICE_PROFILE", sessionConfig.DeviceProfile)
	sessionConfig.SkipTLSVerify = getBoolValue(config.SkipTLSVerify, "UCS_SKIP_TLS_VERIFY", false)

	if !config.Timeout.IsNull() {
		sessionConfig.Timeout = time.Duration(config.Timeout.ValueInt64()) * time.Second
	}
	if !config.MaxRetries.IsNull() {
		sessionConfig.MaxRetries = int(config.MaxRetries.ValueInt64())
	}
	if !config.InitialBackoff.IsNull() {
		sessionConfig.InitialBackoff = time.Duration(config.InitialBackoff.ValueInt64()) * time.Millisecond
	}

	if sessionConfig.Username == "" || sessionConfig.Password == "" {
		resp.Diagnostics.AddError(
			"Missing API Credentials",
			"Both username and password are required. Set the username and password "+
				"attributes or the UCS_USERNAME and UCS_PASSWORD environment variables.",
		)
		return
	}

	tflog.Debug(ctx, "Creating API session", map[string]any{
		"endpoint":       sessionConfig.Endpoint,
		"port":           sessionConfig.Port,
		"device_profile": sessionConfig.DeviceProfile,
	})

	session, err := ucs.NewSessionWithContext(ctx, sessionConfig)
	if err != nil {
		resp.Diagnostics.AddError(
			"Unable to Create API Session",
			fmt.Sprintf("Session configuration is invalid: %s", err),
		)
		return
	}

	if err := session.Login(ctx); err != nil {
		resp.Diagnostics.AddError(
			"Unable to Authenticate with UCS Central",
			fmt.Sprintf("Login to %s failed: %s", sessionConfig.Endpoint, err),
		)
		return
	}

	if err := session.Ping(ctx); err != nil {
		resp.Diagnostics.AddError(
			"Unable to Reach UCS Central Object Tree",
			fmt.Sprintf("Resolving the root organization failed: %s", err),
		)
		return
	}

	tflog.Info(ctx, "UCS Central session established", map[string]any{
		"base_dn": sessionConfig.BaseDN(),
	})

	providerData := ucs.NewProviderData(session, sessionConfig.BaseDN())
	resp.DataSourceData = providerData
	resp.ResourceData = providerData
}

func (p *UCSLDAPProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewLDAPProviderResource,
		NewLDAPGroupMapResource,
		NewLDAPProviderGroupResource,
	}
}

func (p *UCSLDAPProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewLDAPProviderDataSource,
		NewLDAPGroupMapDataSource,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &UCSLDAPProvider{
			Version: version,
		}
	}
}

// getStringValue returns the configured value, the environment variable, or
// the fallback, in that order.
func getStringValue(configValue types.String, envVar string, fallback string) string {
	if !configValue.IsNull() {
		return configValue.ValueString()
	}
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return fallback
}

func getBoolValue(configValue types.Bool, envVar string, fallback bool) bool {
	if !configValue.IsNull() {
		return configValue.ValueBool()
	}
	if value := os.Getenv(envVar); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64Value(configValue types.Int64, envVar string, fallback int64) int64 {
	if !configValue.IsNull() {
		return configValue.ValueInt64()
	}
	if value := os.Getenv(envVar); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/parag-may4/terraform-provider-ucsldap/internal/ucs"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &LDAPProviderDataSource{}
var _ datasource.DataSourceWithConfigure = &LDAPProviderDataSource{}

func NewLDAPProviderDataSource() datasource.DataSource {
	return &LDAPProviderDataSource{}
}

// LDAPProviderDataSource defines the data source implementation.
type LDAPProviderDataSource struct {
	data *ucs.ProviderData
}

// LDAPProviderDataSourceModel describes the data source data model.
type LDAPProviderDataSourceModel struct {
	ID          types.String `tfsdk:"id"`
	Name        types.String `tfsdk:"name"`
	Order       types.String `tfsdk:"order"`
	RootDN      types.String `tfsdk:"root_dn"`
	BaseDN      types.String `tfsdk:"base_dn"`
	Port        types.Int64  `tfsdk:"port"`
	EnableSSL   types.Bool   `tfsdk:"enable_ssl"`
	Filter      types.String `tfsdk:"filter"`
	Attribute   types.String `tfsdk:"attribute"`
	Timeout     types.Int64  `tfsdk:"timeout"`
	Vendor      types.String `tfsdk:"vendor"`
	Retries     types.Int64  `tfsdk:"retries"`
	Description types.String `tfsdk:"description"`
	DN          types.String `tfsdk:"dn"`
}

func (d *LDAPProviderDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_provider"
}

func (d *LDAPProviderDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Reads an LDAP provider from the UCS Central LDAP configuration.",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Data source identifier (the provider name).",
				Computed:            true,
			},
			"name": schema.StringAttribute{
				MarkdownDescription: "Hostname or IP address of the LDAP server.",
				Required:            true,
			},
			"order": schema.StringAttribute{
				MarkdownDescription: "Authentication order of this provider.",
				Computed:            true,
			},
			"root_dn": schema.StringAttribute{
				MarkdownDescription: "Distinguished name of the account used to bind for searches.",
				Computed:            true,
			},
			"base_dn": schema.StringAttribute{
				MarkdownDescription: "Base distinguished name for user searches.",
				Computed:            true,
			},
			"port": schema.Int64Attribute{
				MarkdownDescription: "LDAP server port.",
				Computed:            true,
			},
			"enable_ssl": schema.BoolAttribute{
				MarkdownDescription: "Whether LDAPS is used when connecting to the server.",
				Computed:            true,
			},
			"filter": schema.StringAttribute{
				MarkdownDescription: "LDAP search filter.",
				Computed:            true,
			},
			"attribute": schema.StringAttribute{
				MarkdownDescription: "LDAP attribute that stores the user role and locale information.",
				Computed:            true,
			},
			"timeout": schema.Int64Attribute{
				MarkdownDescription: "LDAP search timeout in seconds.",
				Computed:            true,
			},
			"vendor": schema.StringAttribute{
				MarkdownDescription: "LDAP server vendor.",
				Computed:            true,
			},
			"retries": schema.Int64Attribute{
				MarkdownDescription: "Number of connection retries.",
				Computed:            true,
			},
			"description": schema.StringAttribute{
				MarkdownDescription: "Description of the provider.",
				Computed:            true,
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "Distinguished name of the provider in the managed object tree.",
				Computed:            true,
			},
		},
	}
}

func (d *LDAPProviderDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}

	data, ok := req.ProviderData.(*ucs.ProviderData)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Data Source Configure Type",
			fmt.Sprintf("Expected *ucs.ProviderData, got: %T.", req.ProviderData),
		)
		return
	}

	d.data = data
}

func (d *LDAPProviderDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	ctx = initializeLogging(ctx)

	var config LDAPProviderDataSourceModel
	resp.Diagnostics.Append(req.Config.Get(ctx, &config)...)
	if resp.Diagnostics.HasError() {
		return
	}

	manager := ucs.NewLDAPProviderManager(d.data.Session, d.data.BaseDN)
	name := config.Name.ValueString()

	complete := ucs.LogDataSourceOperation(ctx, "ucsldap_provider", "read", map[string]any{"name": name})
	ldapProvider, err := manager.GetProvider(ctx, name)
	complete(err)
	if err != nil {
		resp.Diagnostics.AddError(
			"Unable to Read LDAP Provider",
			fmt.Sprintf("Reading provider %s failed: %s", name, err),
		)
		return
	}
	if ldapProvider == nil {
		resp.Diagnostics.AddError(
			"LDAP Provider Not Found",
			fmt.Sprintf("No LDAP provider named %s exists at %s.", name, manager.ProviderDN(name)),
		)
		return
	}

	config.ID = types.StringValue(ldapProvider.Name)
	config.DN = types.StringValue(ldapProvider.DN)
	config.Order = types.StringValue(ldapProvider.Order)
	config.RootDN = stringOrNull(ldapProvider.RootDN)
	config.BaseDN = stringOrNull(ldapProvider.BaseDN)
	config.Port = int64FromWire(ldapProvider.Port)
	config.EnableSSL = types.BoolValue(ldapProvider.EnableSSL == "yes")
	config.Filter = stringOrNull(ldapProvider.Filter)
	config.Attribute = stringOrNull(ldapProvider.Attribute)
	config.Timeout = int64FromWire(ldapProvider.Timeout)
	config.Vendor = types.StringValue(ldapProvider.Vendor)
	config.Retries = int64FromWire(ldapProvider.Retries)
	config.Description = stringOrNull(ldapProvider.Descr)

	tflog.SubsystemDebug(ctx, "provider", "Read LDAP provider data source", map[string]any{
		"name": name,
		"dn":   ldapProvider.DN,
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &config)...)
}

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
var _ datasource.DataSource = &LDAPGroupMapDataSource{}
var _ datasource.DataSourceWithConfigure = &LDAPGroupMapDataSource{}

func NewLDAPGroupMapDataSource() datasource.DataSource {
	return &LDAPGroupMapDataSource{}
}

// LDAPGroupMapDataSource defines the data source implementation.
type LDAPGroupMapDataSource struct {
	data *ucs.ProviderData
}

// LDAPGroupMapDataSourceModel describes the data source data model.
type LDAPGroupMapDataSourceModel struct {
	ID          types.String `tfsdk:"id"`
	Name        types.String `tfsdk:"name"`
	Description types.String `tfsdk:"description"`
	DN          types.String `tfsdk:"dn"`
}

func (d *LDAPGroupMapDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_group_map"
}

func (d *LDAPGroupMapDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Reads an LDAP group map from the UCS Central LDAP configuration.",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Data source identifier (the group map name).",
				Computed:            true,
			},
			"name": schema.StringAttribute{
				MarkdownDescription: "Distinguished name of the external LDAP group.",
				Required:            true,
			},
			"description": schema.StringAttribute{
				MarkdownDescription: "Description of the group map.",
				Computed:            true,
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "Distinguished name of the group map in the managed object tree.",
				Computed:            true,
			},
		},
	}
}

func (d *LDAPGroupMapDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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

func (d *LDAPGroupMapDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	ctx = initializeLogging(ctx)

	var config LDAPGroupMapDataSourceModel
	resp.Diagnostics.Append(req.Config.Get(ctx, &config)...)
	if resp.Diagnostics.HasError() {
		return
	}

	locales := ucs.NewLocaleManager(d.data.Session, d.data.BaseDN)
	manager := ucs.NewGroupMapManager(d.data.Session, d.data.BaseDN, locales)
	name := config.Name.ValueString()

	complete := ucs.LogDataSourceOperation(ctx, "ucsldap_group_map", "read", map[string]any{"name": name})
	groupMap, err := manager.GetGroupMap(ctx, name)
	complete(err)
	if err != nil {
		resp.Diagnostics.AddError(
			"Unable to Read LDAP Group Map",
			fmt.Sprintf("Reading group map %s failed: %s", name, err),
		)
		return
	}
	if groupMap == nil {
		resp.Diagnostics.AddError(
			"LDAP Group Map Not Found",
			fmt.Sprintf("No LDAP group map named %s exists at %s.", name, manager.GroupMapDN(name)),
		)
		return
	}

	config.ID = types.StringValue(groupMap.Name)
	config.DN = types.StringValue(groupMap.DN)
	config.Description = stringOrNull(groupMap.Descr)

	tflog.SubsystemDebug(ctx, "provider", "Read LDAP group map data source", map[string]any{
		"name": name,
		"dn":   groupMap.DN,
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &config)...)
}

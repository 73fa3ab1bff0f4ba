package provider

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/booldefault"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/int64default"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringdefault"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-framework/types/basetypes"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ucstypes "github.com/parag-may4/terraform-provider-ucsldap/internal/provider/types"
	"github.com/parag-may4/terraform-provider-ucsldap/internal/provider/validators"
	"github.com/parag-may4/terraform-provider-ucsldap/internal/ucs"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &LDAPProviderResource{}
var _ resource.ResourceWithImportState = &LDAPProviderResource{}
var _ resource.ResourceWithConfigure = &LDAPProviderResource{}

func NewLDAPProviderResource() resource.Resource {
	return &LDAPProviderResource{}
}

// LDAPProviderResource defines the resource implementation.
type LDAPProviderResource struct {
	data *ucs.ProviderData
}

// LDAPProviderResourceModel describes the resource data model.
type LDAPProviderResourceModel struct {
	ID                   types.String `tfsdk:"id"`
	Name                 types.String `tfsdk:"name"`
	Order                types.String `tfsdk:"order"`
	RootDN               ucstypes.DNStringValue `tfsdk:"root_dn"`
	BaseDN               ucstypes.DNStringValue `tfsdk:"base_dn"`
	Port                 types.Int64  `tfsdk:"port"`
	EnableSSL            types.Bool   `tfsdk:"enable_ssl"`
	Filter               types.String `tfsdk:"filter"`
	Attribute            types.String `tfsdk:"attribute"`
	Key                  types.String `tfsdk:"key"`
	Timeout              types.Int64  `tfsdk:"timeout"`
	Vendor               types.String `tfsdk:"vendor"`
	Retries              types.Int64  `tfsdk:"retries"`
	Description          types.String `tfsdk:"description"`
	ValidateConnectivity types.Bool   `tfsdk:"validate_connectivity"`
	GroupRule            types.Object `tfsdk:"group_rule"`
	DN                   types.String `tfsdk:"dn"`
}

// GroupRuleModel describes the nested group rule block.
type GroupRuleModel struct {
	Authorization types.String `tfsdk:"authorization"`
	Traversal     types.String `tfsdk:"traversal"`
	TargetAttr    types.String `tfsdk:"target_attr"`
	Name          types.String `tfsdk:"name"`
	Description   types.String `tfsdk:"description"`
}

func groupRuleAttrTypes() map[string]attr.Type {
	return map[string]attr.Type{
		"authorization": types.StringType,
		"traversal":     types.StringType,
		"target_attr":   types.StringType,
		"name":          types.StringType,
		"description":   types.StringType,
	}
}

func (r *LDAPProviderResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_provider"
}

func (r *LDAPProviderResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Manages an LDAP provider (server endpoint) in the UCS Central LDAP configuration.",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Resource identifier (the provider name).",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"name": schema.StringAttribute{
				MarkdownDescription: "Hostname or IP address of the LDAP server.",
				Required:            true,
				Validators: []validator.String{
					validators.ObjectName(),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"order": schema.StringAttribute{
				MarkdownDescription: "Authentication order of this provider, a number or `lowest-available` (default: `lowest-available`).",
				Optional:            true,
				Computed:            true,
				Default:             stringdefault.StaticString("lowest-available"),
			},
			"root_dn": schema.StringAttribute{
				MarkdownDescription: "Distinguished name of the account used to bind for searches.",
				Optional:            true,
				CustomType:          ucstypes.DNStringType{},
				Validators: []validator.String{
					validators.IsValidDN(),
				},
			},
			"base_dn": schema.StringAttribute{
				MarkdownDescription: "Base distinguished name for user searches.",
				Optional:            true,
				CustomType:          ucstypes.DNStringType{},
				Validators: []validator.String{
					validators.IsValidDN(),
				},
			},
			"port": schema.Int64Attribute{
				MarkdownDescription: "LDAP server port (default: 389).",
				Optional:            true,
				Computed:            true,
				Default:             int64default.StaticInt64(389),
			},
			"enable_ssl": schema.BoolAttribute{
				MarkdownDescription: "Use LDAPS when connecting to the server (default: false).",
				Optional:            true,
				Computed:            true,
				Default:             booldefault.StaticBool(false),
			},
			"filter": schema.StringAttribute{
				MarkdownDescription: "LDAP search filter, e.g. `sAMAccountName=$userid`.",
				Optional:            true,
			},
			"attribute": schema.StringAttribute{
				MarkdownDescription: "LDAP attribute that stores the user role and locale information.",
				Optional:            true,
			},
			"key": schema.StringAttribute{
				MarkdownDescription: "Password of the bind account named in `root_dn`.",
				Optional:            true,
				Sensitive:           true,
			},
			"timeout": schema.Int64Attribute{
				MarkdownDescription: "LDAP search timeout in seconds (default: 30).",
				Optional:            true,
				Computed:            true,
				Default:             int64default.StaticInt64(30),
			},
			"vendor": schema.StringAttribute{
				MarkdownDescription: "LDAP server vendor, `OpenLdap` or `MS-AD` (default: `OpenLdap`).",
				Optional:            true,
				Computed:            true,
				Default:             stringdefault.StaticString("OpenLdap"),
				Validators: []validator.String{
					validators.CaseInsensitiveOneOf("OpenLdap", "MS-AD"),
				},
			},
			"retries": schema.Int64Attribute{
				MarkdownDescription: "Number of connection retries (default: 1).",
				Optional:            true,
				Computed:            true,
				Default:             int64default.StaticInt64(1),
			},
			"description": schema.StringAttribute{
				MarkdownDescription: "Description of the provider.",
				Optional:            true,
			},
			"validate_connectivity": schema.BoolAttribute{
				MarkdownDescription: "Probe the LDAP server before creating or updating the provider (default: false).",
				Optional:            true,
			},
			"group_rule": schema.SingleNestedAttribute{
				MarkdownDescription: "Group membership rule applied when authenticating through this provider.",
				Optional:            true,
				Attributes: map[string]schema.Attribute{
					"authorization": schema.StringAttribute{
						MarkdownDescription: "Use LDAP group membership for authorization, `enable` or `disable`.",
						Optional:            true,
						Validators: []validator.String{
							validators.CaseInsensitiveOneOf("enable", "disable"),
						},
					},
					"traversal": schema.StringAttribute{
						MarkdownDescription: "Group hierarchy traversal depth, `recursive` or `non-recursive`.",
						Optional:            true,
						Validators: []validator.String{
							validators.CaseInsensitiveOneOf("recursive", "non-recursive"),
						},
					},
					"target_attr": schema.StringAttribute{
						MarkdownDescription: "LDAP attribute compared against group membership, e.g. `memberOf`.",
						Optional:            true,
					},
					"name": schema.StringAttribute{
						MarkdownDescription: "Name of the group rule.",
						Optional:            true,
					},
					"description": schema.StringAttribute{
						MarkdownDescription: "Description of the group rule.",
						Optional:            true,
					},
				},
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "Distinguished name of the provider in the managed object tree.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
		},
	}
}

func (r *LDAPProviderResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}

	data, ok := req.ProviderData.(*ucs.ProviderData)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Resource Configure Type",
			fmt.Sprintf("Expected *ucs.ProviderData, got: %T.", req.ProviderData),
		)
		return
	}

	r.data = data
}

func (r *LDAPProviderResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	ctx = initializeLogging(ctx)

	var plan LDAPProviderResourceModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	if resp.Diagnostics.HasError() {
		return
	}

	manager := r.providerManager()
	createReq := createRequestFromModel(&plan)

	if plan.ValidateConnectivity.ValueBool() {
		probe := providerFromCreateRequest(createReq)
		if err := ucs.ProbeProvider(ctx, probe); err != nil {
			resp.Diagnostics.AddError(
				"LDAP Server Unreachable",
				fmt.Sprintf("Connectivity probe of %s failed: %s", plan.Name.ValueString(), err),
			)
			return
		}
	}

	created, err := manager.CreateProvider(ctx, createReq)
	if err != nil {
		resp.Diagnostics.AddError(
			"Unable to Create LDAP Provider",
			fmt.Sprintf("Creating provider %s failed: %s", plan.Name.ValueString(), err),
		)
		return
	}

	if !plan.GroupRule.IsNull() {
		if diags := r.configureGroupRule(ctx, manager, plan.Name.ValueString(), plan.GroupRule); diags.HasError() {
			resp.Diagnostics.Append(diags...)
			return
		}
	}

	plan.ID = plan.Name
	plan.DN = types.StringValue(created.DN)

	tflog.SubsystemInfo(ctx, "provider", "Created LDAP provider resource", map[string]any{
		"name": plan.Name.ValueString(),
		"dn":   created.DN,
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *LDAPProviderResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	ctx = initializeLogging(ctx)

	var state LDAPProviderResourceModel
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	manager := r.providerManager()
	name := state.Name.ValueString()

	ldapProvider, err := manager.GetProvider(ctx, name)
	if err != nil {
		resp.Diagnostics.AddError(
			"Unable to Read LDAP Provider",
			fmt.Sprintf("Reading provider %s failed: %s", name, err),
		)
		return
	}
	if ldapProvider == nil {
		tflog.SubsystemWarn(ctx, "provider", "LDAP provider no longer exists, removing from state", map[string]any{
			"name": name,
		})
		resp.State.RemoveResource(ctx)
		return
	}

	resp.Diagnostics.Append(updateModelFromProvider(ctx, &state, ldapProvider)...)
	if resp.Diagnostics.HasError() {
		return
	}

	rule, err := manager.GetGroupRule(ctx, name)
	if err != nil {
		resp.Diagnostics.AddError(
			"Unable to Read LDAP Group Rule",
			fmt.Sprintf("Reading the group rule of provider %s failed: %s", name, err),
		)
		return
	}
	resp.Diagnostics.Append(updateModelGroupRule(ctx, &state, rule)...)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &state)...)
}

func (r *LDAPProviderResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	ctx = initializeLogging(ctx)

	var plan, state LDAPProviderResourceModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	manager := r.providerManager()
	name := plan.Name.ValueString()

	if plan.ValidateConnectivity.ValueBool() {
		probe := providerFromCreateRequest(createRequestFromModel(&plan))
		if err := ucs.ProbeProvider(ctx, probe); err != nil {
			resp.Diagnostics.AddError(
				"LDAP Server Unreachable",
				fmt.Sprintf("Connectivity probe of %s failed: %s", name, err),
			)
			return
		}
	}

	props := changedProviderProps(&plan, &state)
	if len(props) > 0 {
		if _, err := manager.ModifyProvider(ctx, name, props); err != nil {
			resp.Diagnostics.AddError(
				"Unable to Update LDAP Provider",
				fmt.Sprintf("Updating provider %s failed: %s", name, err),
			)
			return
		}
	}

	if !plan.GroupRule.Equal(state.GroupRule) {
		if plan.GroupRule.IsNull() {
			if err := manager.RemoveGroupRule(ctx, name); err != nil && !ucs.IsNotFoundError(err) {
				resp.Diagnostics.AddError(
					"Unable to Remove LDAP Group Rule",
					fmt.Sprintf("Removing the group rule of provider %s failed: %s", name, err),
				)
				return
			}
		} else {
			if diags := r.configureGroupRule(ctx, manager, name, plan.GroupRule); diags.HasError() {
				resp.Diagnostics.Append(diags...)
				return
			}
		}
	}

	plan.ID = plan.Name
	plan.DN = types.StringValue(manager.ProviderDN(name))

	tflog.SubsystemInfo(ctx, "provider", "Updated LDAP provider resource", map[string]any{
		"name":          name,
		"changed_props": len(props),
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *LDAPProviderResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	ctx = initializeLogging(ctx)

	var state LDAPProviderResourceModel
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	name := state.Name.ValueString()

	complete := ucs.LogResourceOperation(ctx, "ucsldap_provider", "delete", map[string]any{"name": name})
	err := r.providerManager().DeleteProvider(ctx, name)
	complete(err)
	if err != nil {
		if ucs.IsNotFoundError(err) {
			return
		}
		resp.Diagnostics.AddError(
			"Unable to Delete LDAP Provider",
			fmt.Sprintf("Deleting provider %s failed: %s", name, err),
		)
		return
	}

	tflog.SubsystemInfo(ctx, "provider", "Deleted LDAP provider resource", map[string]any{
		"name": name,
	})
}

func (r *LDAPProviderResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	// Import by provider name.
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("id"), req.ID)...)
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("name"), req.ID)...)
}

func (r *LDAPProviderResource) providerManager() *ucs.LDAPProviderManager {
	return ucs.NewLDAPProviderManager(r.data.Session, r.data.BaseDN)
}

func (r *LDAPProviderResource) configureGroupRule(ctx context.Context, manager *ucs.LDAPProviderManager, providerName string, rule types.Object) diag.Diagnostics {
	var diags diag.Diagnostics

	var model GroupRuleModel
	diags.Append(rule.As(ctx, &model, basetypes.ObjectAsOptions{})...)
	if diags.HasError() {
		return diags
	}

	_, err := manager.ConfigureGroupRule(ctx, providerName, &ucs.ConfigureGroupRuleRequest{
		Authorization: model.Authorization.ValueString(),
		Traversal:     model.Traversal.ValueString(),
		TargetAttr:    model.TargetAttr.ValueString(),
		Name:          model.Name.ValueString(),
		Descr:         model.Description.ValueString(),
	})
	if err != nil {
		diags.AddError(
			"Unable to Configure LDAP Group Rule",
			fmt.Sprintf("Configuring the group rule of provider %s failed: %s", providerName, err),
		)
	}
	return diags
}

// createRequestFromModel converts the planned model into a create request,
// rendering numeric and boolean attributes into their wire form.
func createRequestFromModel(model *LDAPProviderResourceModel) *ucs.CreateProviderRequest {
	return &ucs.CreateProviderRequest{
		Name:      model.Name.ValueString(),
		Order:     model.Order.ValueString(),
		RootDN:    model.RootDN.ValueString(),
		BaseDN:    model.BaseDN.ValueString(),
		Port:      strconv.FormatInt(model.Port.ValueInt64(), 10),
		EnableSSL: boolToFlag(model.EnableSSL.ValueBool()),
		Filter:    model.Filter.ValueString(),
		Attribute: model.Attribute.ValueString(),
		Key:       model.Key.ValueString(),
		Timeout:   strconv.FormatInt(model.Timeout.ValueInt64(), 10),
		Vendor:    model.Vendor.ValueString(),
		Retries:   strconv.FormatInt(model.Retries.ValueInt64(), 10),
		Descr:     model.Description.ValueString(),
	}
}

// providerFromCreateRequest builds the in-memory provider used by the
// connectivity probe, without touching the remote tree.
func providerFromCreateRequest(req *ucs.CreateProviderRequest) *ucs.LDAPProvider {
	return &ucs.LDAPProvider{
		Name:      req.Name,
		RootDN:    req.RootDN,
		BaseDN:    req.BaseDN,
		Port:      req.Port,
		EnableSSL: req.EnableSSL,
		Key:       req.Key,
		Timeout:   req.Timeout,
	}
}

// changedProviderProps compares plan against state and returns the wire
// properties that differ.
func changedProviderProps(plan, state *LDAPProviderResourceModel) map[string]string {
	props := make(map[string]string)

	if !plan.Order.Equal(state.Order) {
		props["order"] = plan.Order.ValueString()
	}
	if !plan.RootDN.Equal(state.RootDN) {
		props["rootdn"] = plan.RootDN.ValueString()
	}
	if !plan.BaseDN.Equal(state.BaseDN) {
		props["basedn"] = plan.BaseDN.ValueString()
	}
	if !plan.Port.Equal(state.Port) {
		props["port"] = strconv.FormatInt(plan.Port.ValueInt64(), 10)
	}
	if !plan.EnableSSL.Equal(state.EnableSSL) {
		props["enableSSL"] = boolToFlag(plan.EnableSSL.ValueBool())
	}
	if !plan.Filter.Equal(state.Filter) {
		props["filter"] = plan.Filter.ValueString()
	}
	if !plan.Attribute.Equal(state.Attribute) {
		props["attribute"] = plan.Attribute.ValueString()
	}
	if !plan.Key.Equal(state.Key) {
		props["key"] = plan.Key.ValueString()
	}
	if !plan.Timeout.Equal(state.Timeout) {
		props["timeout"] = strconv.FormatInt(plan.Timeout.ValueInt64(), 10)
	}
	if !plan.Vendor.Equal(state.Vendor) {
		props["vendor"] = plan.Vendor.ValueString()
	}
	if !plan.Retries.Equal(state.Retries) {
		props["retries"] = strconv.FormatInt(plan.Retries.ValueInt64(), 10)
	}
	if !plan.Description.Equal(state.Description) {
		props["descr"] = plan.Description.ValueString()
	}

	return props
}

// updateModelFromProvider refreshes the model from the remote provider state.
func updateModelFromProvider(ctx context.Context, model *LDAPProviderResourceModel, ldapProvider *ucs.LDAPProvider) diag.Diagnostics {
	var diags diag.Diagnostics

	model.ID = types.StringValue(ldapProvider.Name)
	model.Name = types.StringValue(ldapProvider.Name)
	model.DN = types.StringValue(ldapProvider.DN)
	model.Order = types.StringValue(ldapProvider.Order)
	model.RootDN = dnStringOrNull(ldapProvider.RootDN)
	model.BaseDN = dnStringOrNull(ldapProvider.BaseDN)
	model.Port = int64FromWire(ldapProvider.Port)
	model.EnableSSL = types.BoolValue(ldapProvider.EnableSSL == "yes")
	model.Filter = stringOrNull(ldapProvider.Filter)
	model.Attribute = stringOrNull(ldapProvider.Attribute)
	model.Timeout = int64FromWire(ldapProvider.Timeout)
	model.Vendor = types.StringValue(ldapProvider.Vendor)
	model.Retries = int64FromWire(ldapProvider.Retries)
	model.Description = stringOrNull(ldapProvider.Descr)

	// The remote system never returns the bind password; the configured
	// value is kept as-is.

	return diags
}

// updateModelGroupRule refreshes the nested group rule from the remote state.
func updateModelGroupRule(ctx context.Context, model *LDAPProviderResourceModel, rule *ucs.LDAPGroupRule) diag.Diagnostics {
	if rule == nil {
		model.GroupRule = types.ObjectNull(groupRuleAttrTypes())
		return nil
	}

	value, diags := types.ObjectValue(groupRuleAttrTypes(), map[string]attr.Value{
		"authorization": stringOrNull(rule.Authorization),
		"traversal":     stringOrNull(rule.Traversal),
		"target_attr":   stringOrNull(rule.TargetAttr),
		"name":          stringOrNull(rule.Name),
		"description":   stringOrNull(rule.Descr),
	})
	if diags.HasError() {
		return diags
	}
	model.GroupRule = value
	return diags
}

// boolToFlag renders a boolean into the yes/no form the API expects.
func boolToFlag(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// dnStringOrNull maps the API convention of empty-string-means-unset onto a
// null DN value.
func dnStringOrNull(value string) ucstypes.DNStringValue {
	if value == "" {
		return ucstypes.DNStringNull()
	}
	return ucstypes.DNString(value)
}

// stringOrNull maps the API convention of empty-string-means-unset onto a
// null value.
func stringOrNull(value string) types.String {
	if value == "" {
		return types.StringNull()
	}
	return types.StringValue(value)
}

// int64FromWire parses a numeric wire property, yielding null when the
// property is absent or malformed.
func int64FromWire(value string) types.Int64 {
	if value == "" {
		return types.Int64Null()
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return types.Int64Null()
	}
	return types.Int64Value(parsed)
}

package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/parag-may4/terraform-provider-ucsldap/internal/provider/validators"
	"github.com/parag-may4/terraform-provider-ucsldap/internal/ucs"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &LDAPGroupMapResource{}
var _ resource.ResourceWithImportState = &LDAPGroupMapResource{}
var _ resource.ResourceWithConfigure = &LDAPGroupMapResource{}

func NewLDAPGroupMapResource() resource.Resource {
	return &LDAPGroupMapResource{}
}

// LDAPGroupMapResource defines the resource implementation.
type LDAPGroupMapResource struct {
	data *ucs.ProviderData
}

// LDAPGroupMapResourceModel describes the resource data model.
type LDAPGroupMapResourceModel struct {
	ID          types.String `tfsdk:"id"`
	Name        types.String `tfsdk:"name"`
	Description types.String `tfsdk:"description"`
	Roles       types.Set    `tfsdk:"roles"`
	Locales     types.Set    `tfsdk:"locales"`
	DN          types.String `tfsdk:"dn"`
}

func (r *LDAPGroupMapResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_group_map"
}

func (r *LDAPGroupMapResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Maps an external LDAP group onto local role and locale assignments.",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Resource identifier (the group map name).",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"name": schema.StringAttribute{
				MarkdownDescription: "Distinguished name of the external LDAP group, e.g. `CN=admins,OU=groups,DC=example,DC=com`.",
				Required:            true,
				Validators: []validator.String{
					validators.ObjectName(),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"description": schema.StringAttribute{
				MarkdownDescription: "Description of the group map.",
				Optional:            true,
			},
			"roles": schema.SetAttribute{
				MarkdownDescription: "Names of the local roles granted to members of the LDAP group.",
				ElementType:         types.StringType,
				Optional:            true,
			},
			"locales": schema.SetAttribute{
				MarkdownDescription: "Names of the locales assigned to members of the LDAP group. Each locale must exist in the locale registry.",
				ElementType:         types.StringType,
				Optional:            true,
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "Distinguished name of the group map in the managed object tree.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
		},
	}
}

func (r *LDAPGroupMapResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
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

func (r *LDAPGroupMapResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	ctx = initializeLogging(ctx)

	var plan LDAPGroupMapResourceModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	if resp.Diagnostics.HasError() {
		return
	}

	manager := r.groupMapManager()
	name := plan.Name.ValueString()

	created, err := manager.CreateGroupMap(ctx, &ucs.CreateGroupMapRequest{
		Name:  name,
		Descr: plan.Description.ValueString(),
	})
	if err != nil {
		resp.Diagnostics.AddError(
			"Unable to Create LDAP Group Map",
			fmt.Sprintf("Creating group map %s failed: %s", name, err),
		)
		return
	}

	roles, diags := setToStrings(ctx, plan.Roles)
	resp.Diagnostics.Append(diags...)
	locales, diags := setToStrings(ctx, plan.Locales)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	for _, role := range roles {
		if _, err := manager.AddRole(ctx, name, role, ""); err != nil {
			resp.Diagnostics.AddError(
				"Unable to Assign Role",
				fmt.Sprintf("Assigning role %s to group map %s failed: %s", role, name, err),
			)
			return
		}
	}
	for _, locale := range locales {
		if _, err := manager.AddLocale(ctx, name, locale, ""); err != nil {
			resp.Diagnostics.AddError(
				"Unable to Assign Locale",
				fmt.Sprintf("Assigning locale %s to group map %s failed: %s", locale, name, err),
			)
			return
		}
	}

	plan.ID = plan.Name
	plan.DN = types.StringValue(created.DN)

	tflog.SubsystemInfo(ctx, "provider", "Created LDAP group map resource", map[string]any{
		"name":    name,
		"roles":   len(roles),
		"locales": len(locales),
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *LDAPGroupMapResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	ctx = initializeLogging(ctx)

	var state LDAPGroupMapResourceModel
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	manager := r.groupMapManager()
	name := state.Name.ValueString()

	groupMap, err := manager.GetGroupMap(ctx, name)
	if err != nil {
		resp.Diagnostics.AddError(
			"Unable to Read LDAP Group Map",
			fmt.Sprintf("Reading group map %s failed: %s", name, err),
		)
		return
	}
	if groupMap == nil {
		tflog.SubsystemWarn(ctx, "provider", "LDAP group map no longer exists, removing from state", map[string]any{
			"name": name,
		})
		resp.State.RemoveResource(ctx)
		return
	}

	state.ID = state.Name
	state.DN = types.StringValue(groupMap.DN)
	state.Description = stringOrNull(groupMap.Descr)

	// Assignments are addressed by name, so drift detection covers the
	// assignments recorded in state.
	roles, diags := setToStrings(ctx, state.Roles)
	resp.Diagnostics.Append(diags...)
	locales, diags := setToStrings(ctx, state.Locales)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	presentRoles := make([]string, 0, len(roles))
	for _, role := range roles {
		ref, err := manager.GetRole(ctx, name, role)
		if err != nil {
			resp.Diagnostics.AddError(
				"Unable to Read Role Assignment",
				fmt.Sprintf("Reading role %s of group map %s failed: %s", role, name, err),
			)
			return
		}
		if ref != nil {
			presentRoles = append(presentRoles, role)
		}
	}

	presentLocales := make([]string, 0, len(locales))
	for _, locale := range locales {
		ref, err := manager.GetLocaleRef(ctx, name, locale)
		if err != nil {
			resp.Diagnostics.AddError(
				"Unable to Read Locale Assignment",
				fmt.Sprintf("Reading locale %s of group map %s failed: %s", locale, name, err),
			)
			return
		}
		if ref != nil {
			presentLocales = append(presentLocales, locale)
		}
	}

	if !state.Roles.IsNull() {
		value, diags := types.SetValueFrom(ctx, types.StringType, presentRoles)
		resp.Diagnostics.Append(diags...)
		state.Roles = value
	}
	if !state.Locales.IsNull() {
		value, diags := types.SetValueFrom(ctx, types.StringType, presentLocales)
		resp.Diagnostics.Append(diags...)
		state.Locales = value
	}
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &state)...)
}

func (r *LDAPGroupMapResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	ctx = initializeLogging(ctx)

	var plan, state LDAPGroupMapResourceModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	manager := r.groupMapManager()
	name := plan.Name.ValueString()

	if !plan.Description.Equal(state.Description) {
		if _, err := manager.ModifyGroupMap(ctx, name, map[string]string{
			"descr": plan.Description.ValueString(),
		}); err != nil {
			resp.Diagnostics.AddError(
				"Unable to Update LDAP Group Map",
				fmt.Sprintf("Updating group map %s failed: %s", name, err),
			)
			return
		}
	}

	planRoles, diags := setToStrings(ctx, plan.Roles)
	resp.Diagnostics.Append(diags...)
	stateRoles, diags := setToStrings(ctx, state.Roles)
	resp.Diagnostics.Append(diags...)
	planLocales, diags := setToStrings(ctx, plan.Locales)
	resp.Diagnostics.Append(diags...)
	stateLocales, diags := setToStrings(ctx, state.Locales)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	addRoles, removeRoles := diffStrings(planRoles, stateRoles)
	for _, role := range addRoles {
		if _, err := manager.AddRole(ctx, name, role, ""); err != nil {
			resp.Diagnostics.AddError(
				"Unable to Assign Role",
				fmt.Sprintf("Assigning role %s to group map %s failed: %s", role, name, err),
			)
			return
		}
	}
	for _, role := range removeRoles {
		if err := manager.RemoveRole(ctx, name, role); err != nil && !ucs.IsNotFoundError(err) {
			resp.Diagnostics.AddError(
				"Unable to Remove Role Assignment",
				fmt.Sprintf("Removing role %s from group map %s failed: %s", role, name, err),
			)
			return
		}
	}

	addLocales, removeLocales := diffStrings(planLocales, stateLocales)
	for _, locale := range addLocales {
		if _, err := manager.AddLocale(ctx, name, locale, ""); err != nil {
			resp.Diagnostics.AddError(
				"Unable to Assign Locale",
				fmt.Sprintf("Assigning locale %s to group map %s failed: %s", locale, name, err),
			)
			return
		}
	}
	for _, locale := range removeLocales {
		if err := manager.RemoveLocale(ctx, name, locale); err != nil && !ucs.IsNotFoundError(err) {
			resp.Diagnostics.AddError(
				"Unable to Remove Locale Assignment",
				fmt.Sprintf("Removing locale %s from group map %s failed: %s", locale, name, err),
			)
			return
		}
	}

	plan.ID = plan.Name
	plan.DN = types.StringValue(manager.GroupMapDN(name))

	tflog.SubsystemInfo(ctx, "provider", "Updated LDAP group map resource", map[string]any{
		"name":            name,
		"roles_added":     len(addRoles),
		"roles_removed":   len(removeRoles),
		"locales_added":   len(addLocales),
		"locales_removed": len(removeLocales),
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *LDAPGroupMapResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	ctx = initializeLogging(ctx)

	var state LDAPGroupMapResourceModel
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	name := state.Name.ValueString()

	// Assignment children are deleted along with the group map.
	complete := ucs.LogResourceOperation(ctx, "ucsldap_group_map", "delete", map[string]any{"name": name})
	err := r.groupMapManager().DeleteGroupMap(ctx, name)
	complete(err)
	if err != nil {
		if ucs.IsNotFoundError(err) {
			return
		}
		resp.Diagnostics.AddError(
			"Unable to Delete LDAP Group Map",
			fmt.Sprintf("Deleting group map %s failed: %s", name, err),
		)
		return
	}

	tflog.SubsystemInfo(ctx, "provider", "Deleted LDAP group map resource", map[string]any{
		"name": name,
	})
}

func (r *LDAPGroupMapResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	// Import by group map name.
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("id"), req.ID)...)
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("name"), req.ID)...)
}

func (r *LDAPGroupMapResource) groupMapManager() *ucs.GroupMapManager {
	locales := ucs.NewLocaleManager(r.data.Session, r.data.BaseDN)
	return ucs.NewGroupMapManager(r.data.Session, r.data.BaseDN, locales)
}

// setToStrings converts a set value into a string slice, treating null and
// unknown sets as empty.
func setToStrings(ctx context.Context, set types.Set) ([]string, diag.Diagnostics) {
	if set.IsNull() || set.IsUnknown() {
		return nil, nil
	}
	var values []string
	diags := set.ElementsAs(ctx, &values, false)
	return values, diags
}

// diffStrings returns the elements to add (in want, not in have) and to
// remove (in have, not in want).
func diffStrings(want, have []string) (add, remove []string) {
	haveSet := make(map[string]struct{}, len(have))
	for _, v := range have {
		haveSet[v] = struct{}{}
	}
	wantSet := make(map[string]struct{}, len(want))
	for _, v := range want {
		wantSet[v] = struct{}{}
	}

	for _, v := range want {
		if _, ok := haveSet[v]; !ok {
			add = append(add, v)
		}
	}
	for _, v := range have {
		if _, ok := wantSet[v]; !ok {
			remove = append(remove, v)
		}
	}
	return add, remove
}

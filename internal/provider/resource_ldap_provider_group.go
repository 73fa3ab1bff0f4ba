package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringdefault"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/parag-may4/terraform-provider-ucsldap/internal/provider/validators"
	"github.com/parag-may4/terraform-provider-ucsldap/internal/ucs"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &LDAPProviderGroupResource{}
var _ resource.ResourceWithImportState = &LDAPProviderGroupResource{}
var _ resource.ResourceWithConfigure = &LDAPProviderGroupResource{}

func NewLDAPProviderGroupResource() resource.Resource {
	return &LDAPProviderGroupResource{}
}

// LDAPProviderGroupResource defines the resource implementation.
type LDAPProviderGroupResource struct {
	data *ucs.ProviderData
}

// LDAPProviderGroupResourceModel describes the resource data model.
type LDAPProviderGroupResourceModel struct {
	ID          types.String `tfsdk:"id"`
	Name        types.String `tfsdk:"name"`
	Description types.String `tfsdk:"description"`
	Providers   types.Set    `tfsdk:"providers"`
	DN          types.String `tfsdk:"dn"`
}

// ProviderRefModel describes one provider reference inside a provider group.
type ProviderRefModel struct {
	Name        types.String `tfsdk:"name"`
	Order       types.String `tfsdk:"order"`
	Description types.String `tfsdk:"description"`
}

func providerRefAttrTypes() map[string]attr.Type {
	return map[string]attr.Type{
		"name":        types.StringType,
		"order":       types.StringType,
		"description": types.StringType,
	}
}

func (r *LDAPProviderGroupResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_provider_group"
}

func (r *LDAPProviderGroupResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Manages a named LDAP provider group and its ordered provider references.",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Resource identifier (the provider group name).",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"name": schema.StringAttribute{
				MarkdownDescription: "Name of the provider group.",
				Required:            true,
				Validators: []validator.String{
					validators.ObjectName(),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"description": schema.StringAttribute{
				MarkdownDescription: "Description of the provider group.",
				Optional:            true,
			},
			"providers": schema.SetNestedAttribute{
				MarkdownDescription: "Providers referenced by this group. Each referenced provider must already exist.",
				Optional:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"name": schema.StringAttribute{
							MarkdownDescription: "Name of the referenced LDAP provider.",
							Required:            true,
							Validators: []validator.String{
								validators.ObjectName(),
							},
						},
						"order": schema.StringAttribute{
							MarkdownDescription: "Authentication order within the group, a number or `lowest-available` (default: `lowest-available`).",
							Optional:            true,
							Computed:            true,
							Default:             stringdefault.StaticString("lowest-available"),
						},
						"description": schema.StringAttribute{
							MarkdownDescription: "Description of the provider reference.",
							Optional:            true,
						},
					},
				},
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "Distinguished name of the provider group in the managed object tree.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
		},
	}
}

func (r *LDAPProviderGroupResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
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

func (r *LDAPProviderGroupResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	ctx = initializeLogging(ctx)

	var plan LDAPProviderGroupResourceModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	if resp.Diagnostics.HasError() {
		return
	}

	manager := r.providerGroupManager()
	name := plan.Name.ValueString()

	created, err := manager.CreateProviderGroup(ctx, &ucs.CreateProviderGroupRequest{
		Name:  name,
		Descr: plan.Description.ValueString(),
	})
	if err != nil {
		resp.Diagnostics.AddError(
			"Unable to Create LDAP Provider Group",
			fmt.Sprintf("Creating provider group %s failed: %s", name, err),
		)
		return
	}

	refs, diags := setToProviderRefs(ctx, plan.Providers)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	for _, ref := range refs {
		if _, err := manager.AddProviderRef(ctx, &ucs.AddProviderRefRequest{
			GroupName:    name,
			ProviderName: ref.Name.ValueString(),
			Order:        ref.Order.ValueString(),
			Descr:        ref.Description.ValueString(),
		}); err != nil {
			resp.Diagnostics.AddError(
				"Unable to Add Provider Reference",
				fmt.Sprintf("Adding provider %s to group %s failed: %s", ref.Name.ValueString(), name, err),
			)
			return
		}
	}

	plan.ID = plan.Name
	plan.DN = types.StringValue(created.DN)

	tflog.SubsystemInfo(ctx, "provider", "Created LDAP provider group resource", map[string]any{
		"name":      name,
		"providers": len(refs),
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *LDAPProviderGroupResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	ctx = initializeLogging(ctx)

	var state LDAPProviderGroupResourceModel
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	manager := r.providerGroupManager()
	name := state.Name.ValueString()

	group, err := manager.GetProviderGroup(ctx, name)
	if err != nil {
		resp.Diagnostics.AddError(
			"Unable to Read LDAP Provider Group",
			fmt.Sprintf("Reading provider group %s failed: %s", name, err),
		)
		return
	}
	if group == nil {
		tflog.SubsystemWarn(ctx, "provider", "LDAP provider group no longer exists, removing from state", map[string]any{
			"name": name,
		})
		resp.State.RemoveResource(ctx)
		return
	}

	state.ID = state.Name
	state.DN = types.StringValue(group.DN)
	state.Description = stringOrNull(group.Descr)

	// References are addressed by provider name, so drift detection covers
	// the references recorded in state.
	refs, diags := setToProviderRefs(ctx, state.Providers)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	present := make([]attr.Value, 0, len(refs))
	for _, ref := range refs {
		remote, err := manager.GetProviderRef(ctx, name, ref.Name.ValueString())
		if err != nil {
			resp.Diagnostics.AddError(
				"Unable to Read Provider Reference",
				fmt.Sprintf("Reading provider reference %s of group %s failed: %s", ref.Name.ValueString(), name, err),
			)
			return
		}
		if remote == nil {
			continue
		}
		value, diags := types.ObjectValue(providerRefAttrTypes(), map[string]attr.Value{
			"name":        types.StringValue(remote.Name),
			"order":       types.StringValue(remote.Order),
			"description": stringOrNull(remote.Descr),
		})
		resp.Diagnostics.Append(diags...)
		if resp.Diagnostics.HasError() {
			return
		}
		present = append(present, value)
	}

	if !state.Providers.IsNull() {
		value, diags := types.SetValue(types.ObjectType{AttrTypes: providerRefAttrTypes()}, present)
		resp.Diagnostics.Append(diags...)
		if resp.Diagnostics.HasError() {
			return
		}
		state.Providers = value
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &state)...)
}

func (r *LDAPProviderGroupResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	ctx = initializeLogging(ctx)

	var plan, state LDAPProviderGroupResourceModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	manager := r.providerGroupManager()
	name := plan.Name.ValueString()

	if !plan.Description.Equal(state.Description) {
		if _, err := manager.ModifyProviderGroup(ctx, name, map[string]string{
			"descr": plan.Description.ValueString(),
		}); err != nil {
			resp.Diagnostics.AddError(
				"Unable to Update LDAP Provider Group",
				fmt.Sprintf("Updating provider group %s failed: %s", name, err),
			)
			return
		}
	}

	planRefs, diags := setToProviderRefs(ctx, plan.Providers)
	resp.Diagnostics.Append(diags...)
	stateRefs, diags := setToProviderRefs(ctx, state.Providers)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	stateByName := make(map[string]ProviderRefModel, len(stateRefs))
	for _, ref := range stateRefs {
		stateByName[ref.Name.ValueString()] = ref
	}
	planByName := make(map[string]ProviderRefModel, len(planRefs))
	for _, ref := range planRefs {
		planByName[ref.Name.ValueString()] = ref
	}

	for _, ref := range planRefs {
		providerName := ref.Name.ValueString()
		existing, known := stateByName[providerName]
		switch {
		case !known:
			if _, err := manager.AddProviderRef(ctx, &ucs.AddProviderRefRequest{
				GroupName:    name,
				ProviderName: providerName,
				Order:        ref.Order.ValueString(),
				Descr:        ref.Description.ValueString(),
			}); err != nil {
				resp.Diagnostics.AddError(
					"Unable to Add Provider Reference",
					fmt.Sprintf("Adding provider %s to group %s failed: %s", providerName, name, err),
				)
				return
			}
		case !ref.Order.Equal(existing.Order) || !ref.Description.Equal(existing.Description):
			if _, err := manager.ModifyProviderRef(ctx, name, providerName, map[string]string{
				"order": ref.Order.ValueString(),
				"descr": ref.Description.ValueString(),
			}); err != nil {
				resp.Diagnostics.AddError(
					"Unable to Update Provider Reference",
					fmt.Sprintf("Updating provider reference %s of group %s failed: %s", providerName, name, err),
				)
				return
			}
		}
	}

	for _, ref := range stateRefs {
		providerName := ref.Name.ValueString()
		if _, keep := planByName[providerName]; keep {
			continue
		}
		if err := manager.RemoveProviderRef(ctx, name, providerName); err != nil && !ucs.IsNotFoundError(err) {
			resp.Diagnostics.AddError(
				"Unable to Remove Provider Reference",
				fmt.Sprintf("Removing provider %s from group %s failed: %s", providerName, name, err),
			)
			return
		}
	}

	plan.ID = plan.Name
	plan.DN = types.StringValue(manager.ProviderGroupDN(name))

	tflog.SubsystemInfo(ctx, "provider", "Updated LDAP provider group resource", map[string]any{
		"name": name,
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *LDAPProviderGroupResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	ctx = initializeLogging(ctx)

	var state LDAPProviderGroupResourceModel
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	name := state.Name.ValueString()

	// Provider references are deleted along with the group.
	complete := ucs.LogResourceOperation(ctx, "ucsldap_provider_group", "delete", map[string]any{"name": name})
	err := r.providerGroupManager().DeleteProviderGroup(ctx, name)
	complete(err)
	if err != nil {
		if ucs.IsNotFoundError(err) {
			return
		}
		resp.Diagnostics.AddError(
			"Unable to Delete LDAP Provider Group",
			fmt.Sprintf("Deleting provider group %s failed: %s", name, err),
		)
		return
	}

	tflog.SubsystemInfo(ctx, "provider", "Deleted LDAP provider group resource", map[string]any{
		"name": name,
	})
}

func (r *LDAPProviderGroupResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	// Import by provider group name.
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("id"), req.ID)...)
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("name"), req.ID)...)
}

func (r *LDAPProviderGroupResource) providerGroupManager() *ucs.ProviderGroupManager {
	return ucs.NewProviderGroupManager(r.data.Session, r.data.BaseDN)
}

// setToProviderRefs converts the nested providers set into models, treating
// null and unknown sets as empty.
func setToProviderRefs(ctx context.Context, set types.Set) ([]ProviderRefModel, diag.Diagnostics) {
	if set.IsNull() || set.IsUnknown() {
		return nil, nil
	}
	var refs []ProviderRefModel
	diags := set.ElementsAs(ctx, &refs, false)
	return refs, diags
}

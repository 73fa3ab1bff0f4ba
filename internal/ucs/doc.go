// Package ucs implements a managed-object client for the Cisco UCS Central
// XML API together with the LDAP/AAA administration layer built on top of it.
//
// # Architecture
//
// The package is organized in two layers:
//
//   - Session: a narrow interface over the XML API offering DN resolution
//     (QueryDN), staged configuration mutations (AddMO, SetMO, RemoveMO) and
//     transactional flush (Commit). APISession is the concrete implementation,
//     handling authentication cookies, TLS, retries and logging.
//
//   - Managers: one per managed-object family. LDAPProviderManager,
//     GroupMapManager, ProviderGroupManager and LocaleManager translate named
//     operations into DN construction, existence validation and staged
//     mutations against a Session.
//
// All configuration state lives on the remote system. Managers hold no cache;
// every read resolves the object's DN again.
//
// # Addressing
//
// LDAP configuration objects live under a fixed subtree of the device
// profile, org-root/deviceprofile-<profile>/ldap-ext:
//
//	ldap-ext/provider-<name>                 LDAP provider
//	ldap-ext/provider-<name>/ldap-group-rule group membership rule
//	ldap-ext/ldapgroup-<name>                group map
//	ldap-ext/ldapgroup-<name>/role-<name>    role assignment
//	ldap-ext/ldapgroup-<name>/locale-<name>  locale assignment
//	ldap-ext/providergroup-<name>            provider group
//	ldap-ext/providergroup-<name>/provider-ref-<name> provider reference
//
// Uniqueness is enforced purely by DN collision on the remote system; there
// are no generated identifiers.
//
// # Example Usage
//
//	config := ucs.DefaultSessionConfig()
//	config.Endpoint = "ucs-central.example.com"
//	config.Username = "admin"
//	config.Password = "secret"
//
//	session, err := ucs.NewSessionWithContext(ctx, config)
//	if err != nil {
//		return err
//	}
//	if err := session.Login(ctx); err != nil {
//		return err
//	}
//	defer session.Logout(ctx)
//
//	providers := ucs.NewLDAPProviderManager(session, config.BaseDN())
//	provider, err := providers.CreateProvider(ctx, &ucs.CreateProviderRequest{
//		Name:      "corp-ldap",
//		Port:      "636",
//		EnableSSL: "yes",
//	})
//
// # Error Handling
//
// All operations return *OperationError carrying the operation name, an error
// category and a human-readable reason. Absence is not an error for Get and
// Exists style operations; it is for get-then-act operations (modify, delete,
// add-child), which fail with a not_found category before any mutation is
// staged.
package ucs

// Package modules contains the self-contained application features.
//
// Each subdirectory is a module implementing module.Module. Modules are
// listed in internal/app and registered and booted by internal/server.
package modules

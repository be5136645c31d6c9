// Package config defines the settings shared by alive-server and alive-ctl and
// provides helpers to load, validate and save them in YAML format.
//
// Secrets (SMTP password, gateway token, broker passwords) may be supplied
// through a .env file or the process environment instead of the YAML file.
package config

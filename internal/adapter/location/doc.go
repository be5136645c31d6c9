// Package location provides the device location used in emergency alerts.
package location

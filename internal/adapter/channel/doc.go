// Package channel delivers alert messages to emergency contacts over email
// and HTTP messaging gateways.
package channel

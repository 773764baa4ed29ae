// Package host implements the host side of a draad hub: it polls the hub
// over the peripheral link, decodes frames, pokes the satellites for their
// status reports and turns them into temperature readings.
package host

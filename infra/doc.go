// Package infra contains technical adapters such as MQTT clients, the
// Stundenplan24 loader, history stores and metrics exporters. They depend
// only on the interfaces defined in the core packages.
package infra

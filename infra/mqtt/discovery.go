package mqtt

// Device groups the discovered entities in Home Assistant.
type Device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
}

// Discovery is a Home Assistant MQTT discovery payload for a sensor.
type Discovery struct {
	Name                string `json:"name"`
	UniqueID            string `json:"unique_id"`
	ObjectID            string `json:"object_id"`
	StateTopic          string `json:"state_topic"`
	ValueTemplate       string `json:"value_template"`
	JSONAttributesTopic string `json:"json_attributes_topic"`
	AvailabilityTopic   string `json:"availability_topic"`
	PayloadAvailable    string `json:"payload_available"`
	PayloadNotAvailable string `json:"payload_not_available"`
	Icon                string `json:"icon"`
	Device              Device `json:"device"`
}

// DiscoveryConfig returns the sensor config announcing the timetable. The
// state is "ok" or "error"; rows, rows_ha and meta become attributes.
func DiscoveryConfig(cfg Config) Discovery {
	id := "splan_" + cfg.NodeID
	return Discovery{
		Name:                cfg.Name,
		UniqueID:            id,
		ObjectID:            id,
		StateTopic:          cfg.StateTopic(),
		ValueTemplate:       "{{ value_json.state }}",
		JSONAttributesTopic: cfg.StateTopic(),
		AvailabilityTopic:   cfg.AvailabilityTopic(),
		PayloadAvailable:    Online,
		PayloadNotAvailable: Offline,
		Icon:                "mdi:calendar-week",
		Device: Device{
			Identifiers:  []string{id},
			Name:         cfg.Name,
			Manufacturer: "splan",
			Model:        "Stundenplan24 timetable",
		},
	}
}

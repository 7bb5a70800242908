package www

import (
	"log"
	"net/http"
	"time"
)

func (h *Handlers) apiGetConfig(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.AppConfig())
}

type configSaveRequest struct {
	Section string `json:"section"`

	// robot section
	RobotBaseURL string `json:"robot_base_url,omitempty"`
	RobotTimeout string `json:"robot_timeout,omitempty"`
	RobotSerial  string `json:"robot_serial,omitempty"`

	// workflow section
	BinPolicy string `json:"bin_policy,omitempty"`

	// messaging section
	Backend       string   `json:"backend,omitempty"`
	KafkaBrokers  []string `json:"kafka_brokers,omitempty"`
	MQTTBroker    string   `json:"mqtt_broker,omitempty"`
	MQTTPort      int      `json:"mqtt_port,omitempty"`
	MQTTClientID  string   `json:"mqtt_client_id,omitempty"`
	RequestsTopic string   `json:"requests_topic,omitempty"`
	EventsTopic   string   `json:"events_topic,omitempty"`

	// redis section
	RedisAddress  string `json:"redis_address,omitempty"`
	RedisPassword string `json:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty"`
}

func (h *Handlers) apiSaveConfig(w http.ResponseWriter, r *http.Request) {
	var req configSaveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg := h.engine.AppConfig()
	switch req.Section {
	case "robot":
		if req.RobotBaseURL != "" {
			cfg.Robot.BaseURL = req.RobotBaseURL
		}
		if req.RobotSerial != "" {
			cfg.Robot.Serial = req.RobotSerial
		}
		if d, err := time.ParseDuration(req.RobotTimeout); err == nil && d > 0 {
			cfg.Robot.Timeout = d
		}
	case "workflow":
		if req.BinPolicy != "" {
			cfg.Workflow.BinPolicy = req.BinPolicy
		}
	case "messaging":
		if req.Backend != "" {
			cfg.Messaging.Backend = req.Backend
		}
		if len(req.KafkaBrokers) > 0 {
			cfg.Messaging.Kafka.Brokers = req.KafkaBrokers
		}
		if req.MQTTBroker != "" {
			cfg.Messaging.MQTT.Broker = req.MQTTBroker
		}
		if req.MQTTPort > 0 {
			cfg.Messaging.MQTT.Port = req.MQTTPort
		}
		if req.MQTTClientID != "" {
			cfg.Messaging.MQTT.ClientID = req.MQTTClientID
		}
		if req.RequestsTopic != "" {
			cfg.Messaging.RequestsTopic = req.RequestsTopic
		}
		if req.EventsTopic != "" {
			cfg.Messaging.EventsTopic = req.EventsTopic
		}
	case "redis":
		if req.RedisAddress != "" {
			cfg.Redis.Address = req.RedisAddress
		}
		cfg.Redis.Password = req.RedisPassword
		cfg.Redis.DB = req.RedisDB
	default:
		h.jsonError(w, "unknown section", http.StatusBadRequest)
		return
	}

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		log.Printf("config: save error: %v", err)
		h.jsonError(w, "failed to save: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Hot-reload the affected subsystem
	switch req.Section {
	case "robot":
		h.engine.ReconfigureRobot()
	case "messaging":
		h.engine.ReconfigureMessaging()
	}

	h.engine.DB().AppendAudit("config", req.Section, "saved", "", h.getUsername(r))
	log.Printf("config: %s section saved", req.Section)
	h.jsonOK(w, map[string]string{"saved": req.Section})
}

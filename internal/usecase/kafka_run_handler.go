package usecase

import (
	"context"
	"encoding/json"

	applogger "SignalSynth/pkg/logger"
)

// runTrigger is the wire form of a run request on the trigger topic. An
// empty or malformed body still triggers a run; the topic exists to poke
// the synthesis, not to carry data.
type runTrigger struct {
	Reason string `json:"reason"`
}

// KafkaRunHandler consumes the run trigger topic and schedules a run per
// message.
type KafkaRunHandler struct {
	topic     string
	scheduler Scheduler
	l         *applogger.Logger
}

func NewKafkaRunHandler(topic string, scheduler Scheduler, l *applogger.Logger) *KafkaRunHandler {
	return &KafkaRunHandler{topic: topic, scheduler: scheduler, l: l}
}

func (h *KafkaRunHandler) Topic() string { return h.topic }

func (h *KafkaRunHandler) Handle(ctx context.Context, data []byte) error {
	var trigger runTrigger
	_ = json.Unmarshal(data, &trigger)

	h.l.Info("run trigger received",
		applogger.String("topic", h.topic),
		applogger.String("reason", trigger.Reason))

	return h.scheduler.Schedule(ctx, "kafka")
}

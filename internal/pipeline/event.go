package pipeline

import (
	"context"

	"holoprofile/internal/questionbank"
)

// EventType tags a stream frame.
type EventType string

const (
	EventStatus EventType = "status"
	EventChunk  EventType = "chunk"
	EventFinal  EventType = "final"
	EventError  EventType = "error"
)

// Event is one frame of a streamed run. Data is a status label, a text
// chunk, the final *artifact.FinalProfile, or an error message.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Terminal reports whether no event may follow e.
func (e Event) Terminal() bool { return e.Type == EventFinal || e.Type == EventError }

// Stage names a pipeline step.
type Stage string

const (
	StageAnalysis  Stage = "analysis"
	StageSynthesis Stage = "synthesis"
)

var statusLabels = map[questionbank.Locale]map[Stage]string{
	questionbank.LocaleZH: {
		StageAnalysis:  "正在进行深度心理分析...",
		StageSynthesis: "正在生成全息报告...",
	},
	questionbank.LocaleEN: {
		StageAnalysis:  "Running deep analysis...",
		StageSynthesis: "Synthesizing your report...",
	},
	questionbank.LocaleJA: {
		StageAnalysis:  "深層分析を実行中...",
		StageSynthesis: "レポートを生成中...",
	},
}

// StatusLabel returns the status text for a stage in lang. Unknown
// languages get English.
func StatusLabel(stage Stage, lang string) string {
	labels, ok := statusLabels[questionbank.Locale(lang)]
	if !ok {
		labels = statusLabels[questionbank.LocaleEN]
	}
	return labels[stage]
}

// Emitter receives progress from a running pipeline.
type Emitter interface {
	EmitStatus(stage Stage)
	EmitLLMChunk(chunk string)
}

// chanEmitter forwards events to a stream until ctx is done.
type chanEmitter struct {
	ctx  context.Context
	ch   chan<- Event
	lang string
}

func (e *chanEmitter) send(ev Event) bool {
	select {
	case e.ch <- ev:
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (e *chanEmitter) EmitStatus(stage Stage) {
	e.send(Event{Type: EventStatus, Data: StatusLabel(stage, e.lang)})
}

func (e *chanEmitter) EmitLLMChunk(chunk string) {
	if chunk == "" {
		return
	}
	e.send(Event{Type: EventChunk, Data: chunk})
}

package session

import (
	"time"

	"github.com/c9s/chartdesk/pkg/types"
)

// State is the persisted part of a view session.
type State struct {
	Symbol      string             `json:"symbol"`
	// Symbols is set by comparison views, where Symbol is the view key.
	Symbols     []string           `json:"symbols,omitempty"`
	Timeframe   types.Timeframe    `json:"timeframe"`
	CustomRange *types.DateRange   `json:"customRange,omitempty"`
	DisplayUnit types.DisplayUnit  `json:"displayUnit"`
	DomainMode  types.DomainMode   `json:"domainMode"`
	ZoomLevel   int                `json:"zoomLevel"`
	Annotations []types.Annotation `json:"annotations"`
	Overlay     *types.Overlay     `json:"overlay,omitempty"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func DefaultState(symbol string, timeframe types.Timeframe, zoomLevel int) State {
	return State{
		Symbol:      symbol,
		Timeframe:   timeframe,
		DisplayUnit: types.DisplayUnitPrice,
		DomainMode:  types.DomainModeAuto,
		ZoomLevel:   zoomLevel,
	}
}

// normalize repairs fields a stale or hand-edited state file may lack.
func (s *State) normalize(def State) {
	if !s.Timeframe.Valid() {
		s.Timeframe = def.Timeframe
	}

	if s.Timeframe == types.TimeframeCustom && s.CustomRange == nil {
		s.Timeframe = def.Timeframe
	}

	if !s.DisplayUnit.Valid() {
		s.DisplayUnit = def.DisplayUnit
	}

	if s.DomainMode != types.DomainModeAuto && s.DomainMode != types.DomainModeFixed {
		s.DomainMode = def.DomainMode
	}
}

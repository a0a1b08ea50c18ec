package harness

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/FedeDP/plugins/src/hostapi"
	"github.com/FedeDP/plugins/src/hostapi/hostapitest"
	"github.com/FedeDP/plugins/src/plugin"
	"github.com/FedeDP/plugins/src/ppme"
)

// ThreadRecord is one entry of an events file's "threads" array, used to
// seed the in-memory fake thread table before replaying events.
type ThreadRecord struct {
	Tid  int64  `json:"tid"`
	Ptid int64  `json:"ptid"`
	Sid  int64  `json:"sid"`
	Comm string `json:"comm"`
	Exe  string `json:"exe"`
	Args []string `json:"args"`
	Env  []string `json:"env"`
}

// EventRecord is one entry of an events file's "events" array.
type EventRecord struct {
	Type ppme.Code `json:"type"`
	Tid  int64     `json:"tid"`
}

// Scenario is the harness's synthetic input file format: a seed thread
// table plus a sequence of events to replay through Parse.
type Scenario struct {
	Threads []ThreadRecord `json:"threads"`
	Events  []EventRecord  `json:"events"`
}

// LoadScenario reads and decodes a Scenario from path.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading events file: %w", err)
	}
	var s Scenario
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding events file: %w", err)
	}
	return &s, nil
}

// BuildThreadTable materializes s.Threads into an in-memory fake thread
// table, the same fake the plugin's own tests use in place of the host's
// real thread table.
func (s *Scenario) BuildThreadTable() *hostapitest.ThreadTable {
	tt := hostapitest.NewThreadTable()
	for _, r := range s.Threads {
		e := hostapitest.NewThreadEntry(r.Tid)
		e.PtidV = r.Ptid
		e.SidV = r.Sid
		e.CommV = r.Comm
		e.ExeV = r.Exe
		e.ArgsV = r.Args
		e.EnvV = r.Env
		tt.Add(e)
	}
	return tt
}

// Run replays every event in s against p, logging a warning for each event
// that fails to parse and one summary line once all events are replayed.
func Run(p *plugin.Plugin, s *Scenario) {
	tt := s.BuildThreadTable()
	for i, rec := range s.Events {
		var evt hostapi.Event = hostapitest.Event{TypeV: rec.Type, TidV: rec.Tid}
		if !p.Parse(evt, tt) {
			log.Warnf("harness: event %d (type=%v tid=%d) failed to parse: %v", i, rec.Type, rec.Tid, p.LastError())
		}
	}
	log.Infof("harness: replayed %d events", len(s.Events))
}

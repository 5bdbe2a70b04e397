package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"idlemine.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	frameSchema := compile("frame.schema.json")
	actionSchema := compile("action.schema.json")
	ackSchema := compile("ack.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"tui",
	  "capabilities":{"controller":true,"events":true,"max_queue":8}
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"S1",
	  "controller":true,
	  "game_params":{
	    "tick_rate_hz":60,
	    "frame_every_ticks":3,
	    "field_width":1000,
	    "field_height":700,
	    "rock":{"x":500,"y":350},
	    "max_ores":100,
	    "max_minecarts":10
	  },
	  "catalogs":{
	    "ores":{"digest":"deadbeef","count":10},
	    "enemies":{"digest":"deadbeef","count":4},
	    "prestige":{"digest":"deadbeef","count":12},
	    "tuning_digest":"deadbeef"
	  }
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var frame any
	_ = json.Unmarshal([]byte(`{
	  "type":"FRAME",
	  "protocol_version":"1.0",
	  "tick":42,
	  "now_ms":1700000000000,
	  "ores":[{"id":1,"type":"coal","x":100,"y":120,"value":1}],
	  "dwarves":[{"id":2,"x":50,"y":50,"carrying":"coal"}],
	  "soldiers":[],
	  "enemies":[{"id":3,"type":"goblin","x":900,"y":40,"health":30,"max_health":30}],
	  "minecarts":[{"id":0,"x":60,"y":60,"items":3,"capacity":20,"total_value":3,"progress":0}],
	  "economy":{
	    "gold":12,"total_gold_earned":40,"coins_per_minute":6,
	    "shop":[{"action":"upgrade_click_power","price":50,"value":1}],
	    "ores":[],
	    "prestige":{"currency":0,"count":0,"preview":0,"next_threshold":100000,"gold_multiplier":1,"nodes":{}}
	  },
	  "horde":{"phase":"dormant"},
	  "events":[{"cursor":7,"name":"click","at_ms":1700000000000,"tick":42}]
	}`), &frame)
	validate(frameSchema, frame)

	var action any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACTION",
	  "protocol_version":"1.0",
	  "id":"A1",
	  "action":"unlock_ore",
	  "ore":"coal"
	}`), &action)
	validate(actionSchema, action)

	var ack any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACK",
	  "protocol_version":"1.0",
	  "ack_for":"A1",
	  "accepted":false,
	  "code":"E_NO_RESOURCE",
	  "gold":12
	}`), &ack)
	validate(ackSchema, ack)
}

func TestSchemas_RejectUnknownAction(t *testing.T) {
	s, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", "action.schema.json"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var v any
	_ = json.Unmarshal([]byte(`{"type":"ACTION","protocol_version":"1.0","id":"A1","action":"steal_gold"}`), &v)
	if err := s.Validate(v); err == nil {
		t.Fatalf("expected unknown action rejected")
	}
}

func TestSchemas_FrameStructMatches(t *testing.T) {
	s, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", "frame.schema.json"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	msg := protocol.FrameMsg{
		Type:            protocol.TypeFrame,
		ProtocolVersion: protocol.Version,
		Tick:            1,
		NowMS:           1000,
		Ores:            []protocol.OreView{{ID: 1, Type: "coal", X: 1, Y: 2, Value: 1}},
		Dwarves:         []protocol.DwarfView{},
		Soldiers:        []protocol.SoldierView{},
		Enemies:         []protocol.EnemyView{},
		Horde:           protocol.HordeView{Phase: "armed", NextMS: 5000},
	}
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(v); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

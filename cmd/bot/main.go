// Command bot is an autoplayer: it clicks at a fixed rate and spends gold on
// the cheapest affordable shop entry whenever an economy snapshot arrives.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/gorilla/websocket"

	"idlemine.ai/internal/protocol"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "client name")
		cps      = flag.Int("cps", 5, "clicks per second")
		prestige = flag.Bool("prestige", false, "prestige whenever it would award currency")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		Capabilities:    protocol.HelloCapabilities{Controller: true, MaxQueue: 4},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	out := make(chan protocol.ActionMsg, 64)
	go func() {
		seq := 0
		for a := range out {
			seq++
			a.Type = protocol.TypeAction
			a.ProtocolVersion = protocol.Version
			a.ID = fmt.Sprintf("B%d", seq)
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(a); err != nil {
				logger.Printf("write: %v", err)
				return
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	if *cps > 0 {
		go func() {
			t := time.NewTicker(time.Second / time.Duration(*cps))
			defer t.Stop()
			for range t.C {
				select {
				case out <- protocol.ActionMsg{Action: "click"}:
				default:
				}
			}
		}()
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s controller=%v tick_rate=%d", w.SessionID, w.Controller, w.GameParams.TickRateHz)
		case protocol.TypeAck:
			var a protocol.AckMsg
			if err := json.Unmarshal(msg, &a); err == nil && !a.Accepted && a.Code != protocol.ErrNoResource {
				logger.Printf("refused %s: %s %s", a.AckFor, a.Code, a.Message)
			}
		case protocol.TypeFrame:
			var f protocol.FrameMsg
			if err := json.Unmarshal(msg, &f); err != nil {
				continue
			}
			for _, a := range plan(&f, *prestige) {
				select {
				case out <- a:
				default:
				}
			}
		}
	}
}

// plan picks the actions to send in response to a frame.
func plan(f *protocol.FrameMsg, prestige bool) []protocol.ActionMsg {
	var acts []protocol.ActionMsg
	if f.MoneyBag != nil {
		acts = append(acts, protocol.ActionMsg{Action: "collect_money_bag"})
	}
	e := f.Economy
	if e == nil {
		return acts
	}
	if prestige && e.Prestige.Preview > 0 {
		return append(acts, protocol.ActionMsg{Action: "prestige"})
	}

	type offer struct {
		act   protocol.ActionMsg
		price float64
	}
	var offers []offer
	for _, s := range e.Shop {
		if !s.Maxed && s.Price > 0 {
			offers = append(offers, offer{protocol.ActionMsg{Action: s.Action}, s.Price})
		}
	}
	for _, o := range e.Ores {
		if !o.Unlocked {
			offers = append(offers, offer{protocol.ActionMsg{Action: "unlock_ore", Ore: o.ID}, o.UnlockPrice})
		}
	}
	sort.SliceStable(offers, func(i, j int) bool { return offers[i].price < offers[j].price })
	if len(offers) > 0 && offers[0].price <= e.Gold {
		acts = append(acts, offers[0].act)
	}
	return acts
}

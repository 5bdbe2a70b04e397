package game

import (
	"idlemine.ai/internal/protocol"
	"idlemine.ai/internal/sim/catalogs"
)

// Params describes the play field and loop cadence for renderers.
func (g *Game) Params() protocol.GameParams {
	return protocol.GameParams{
		TickRateHz:      g.tun.TickRateHz,
		FrameEveryTicks: g.tun.FrameEveryTicks,
		FieldWidth:      g.field.W,
		FieldHeight:     g.field.H,
		Rock:            protocol.Point{X: g.rock.X, Y: g.rock.Y},
		MaxOres:         g.tun.Limits.MaxOres,
		MaxMinecarts:    g.tun.Limits.MaxMinecarts,
	}
}

func (g *Game) CatalogDigests() protocol.CatalogDigests {
	return protocol.CatalogDigests{
		Ores:         protocol.DigestRef{Digest: g.cats.Ores.Digest, Count: len(g.cats.Ores.Order)},
		Enemies:      protocol.DigestRef{Digest: g.cats.Enemies.Digest, Count: len(g.cats.Enemies.Order)},
		Prestige:     protocol.DigestRef{Digest: g.cats.Prestige.Digest, Count: len(g.cats.Prestige.Order)},
		TuningDigest: g.tun.Digest(),
	}
}

func (g *Game) Welcome(sessionID string, controller bool) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		Controller:      controller,
		GameParams:      g.Params(),
		Catalogs:        g.CatalogDigests(),
	}
}

// CatalogMsgs returns one CATALOG message per catalog, entries in load order.
func (g *Game) CatalogMsgs() []protocol.CatalogMsg {
	ores := make([]catalogs.OreDef, 0, len(g.cats.Ores.Order))
	for _, id := range g.cats.Ores.Order {
		ores = append(ores, g.cats.Ores.ByID[id])
	}
	enemies := make([]catalogs.EnemyDef, 0, len(g.cats.Enemies.Order))
	for _, id := range g.cats.Enemies.Order {
		enemies = append(enemies, g.cats.Enemies.ByID[id])
	}
	nodes := make([]catalogs.PrestigeNodeDef, 0, len(g.cats.Prestige.Order))
	for _, id := range g.cats.Prestige.Order {
		nodes = append(nodes, g.cats.Prestige.ByID[id])
	}
	msg := func(name, digest string, data any) protocol.CatalogMsg {
		return protocol.CatalogMsg{
			Type:            protocol.TypeCatalog,
			ProtocolVersion: protocol.Version,
			Name:            name,
			Digest:          digest,
			Part:            1,
			TotalParts:      1,
			Data:            data,
		}
	}
	return []protocol.CatalogMsg{
		msg("ores", g.cats.Ores.Digest, ores),
		msg("enemies", g.cats.Enemies.Digest, enemies),
		msg("prestige", g.cats.Prestige.Digest, nodes),
	}
}

// Package geo enriches derived nodes with approximate locations from a local
// MaxMind database. Enrichment is optional and best-effort.
package geo

import (
	"net"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"github.com/abulimen/pnode-watch/internal/models"
)

type Location struct {
	Country string
	City    string
	Lat     float64
	Lon     float64
}

type Resolver struct {
	db    *geoip2.Reader
	cache sync.Map // map[string]Location
}

// NewResolver opens the GeoIP database at dbPath. An empty path disables
// enrichment entirely and returns a nil resolver, which all methods accept.
func NewResolver(dbPath string) (*Resolver, error) {
	if dbPath == "" {
		return nil, nil
	}
	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Resolver{db: db}, nil
}

func (g *Resolver) Close() {
	if g != nil && g.db != nil {
		g.db.Close()
	}
}

// Lookup resolves one IP. Misses and private addresses return ok=false.
func (g *Resolver) Lookup(ipStr string) (Location, bool) {
	if g == nil || g.db == nil {
		return Location{}, false
	}

	if cached, ok := g.cache.Load(ipStr); ok {
		return cached.(Location), true
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return Location{}, false
	}

	record, err := g.db.City(ip)
	if err != nil || record == nil {
		return Location{}, false
	}

	loc := Location{
		Country: record.Country.Names["en"],
		City:    record.City.Names["en"],
		Lat:     record.Location.Latitude,
		Lon:     record.Location.Longitude,
	}
	g.cache.Store(ipStr, loc)
	return loc, true
}

// Enrich annotates nodes in place with the location of their address host.
func (g *Resolver) Enrich(nodes []models.DerivedNode) {
	if g == nil || g.db == nil {
		return
	}
	for i := range nodes {
		host := nodes[i].Address
		if j := strings.Index(host, ":"); j >= 0 {
			host = host[:j]
		}
		if loc, ok := g.Lookup(host); ok {
			nodes[i].Country = loc.Country
			nodes[i].City = loc.City
			nodes[i].Lat = loc.Lat
			nodes[i].Lon = loc.Lon
		}
	}
}

package lookup

import (
	"net"
	"os"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
	"go.uber.org/zap"

	"github.com/akl7777777/ippure-panel/internal/model"
)

// LocalDB fills gaps in a report from GeoLite2 databases.
type LocalDB struct {
	asn  *maxminddb.Reader
	city *geoip2.Reader
}

// asnRecord maps the fields in a GeoLite2-ASN MMDB.
type asnRecord struct {
	AutonomousSystemNumber       int    `maxminddb:"autonomous_system_number"`
	AutonomousSystemOrganization string `maxminddb:"autonomous_system_organization"`
}

// NewLocalDB opens whichever of the two databases exist. Returns nil if neither does.
func NewLocalDB(asnPath, cityPath string, log *zap.Logger) *LocalDB {
	db := &LocalDB{}

	if exists(asnPath, log) {
		r, err := maxminddb.Open(asnPath)
		if err != nil {
			log.Warn("failed to open ASN database", zap.String("path", asnPath), zap.Error(err))
		} else {
			log.Info("loaded ASN database", zap.String("path", asnPath))
			db.asn = r
		}
	}

	if exists(cityPath, log) {
		r, err := geoip2.Open(cityPath)
		if err != nil {
			log.Warn("failed to open City database", zap.String("path", cityPath), zap.Error(err))
		} else {
			log.Info("loaded City database", zap.String("path", cityPath))
			db.city = r
		}
	}

	if db.asn == nil && db.city == nil {
		return nil
	}
	return db
}

func exists(path string, log *zap.Logger) bool {
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		log.Debug("database not found, enrichment disabled", zap.String("path", path))
		return false
	}
	return true
}

// Enrich fills the ASN, organization and location fields IPPure left empty.
// Fields already set are never overwritten.
func (db *LocalDB) Enrich(r *model.Report, ipStr string) {
	if db == nil {
		return
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return
	}

	if db.asn != nil && r.ASN == 0 {
		var rec asnRecord
		if err := db.asn.Lookup(ip, &rec); err == nil && rec.AutonomousSystemNumber != 0 {
			r.ASN = rec.AutonomousSystemNumber
			if r.ASOrganization == "" {
				r.ASOrganization = rec.AutonomousSystemOrganization
			}
		}
	}

	if db.city != nil && (r.Country == "" || r.Timezone == "") {
		rec, err := db.city.City(ip)
		if err != nil {
			return
		}
		if r.Country == "" {
			r.Country = rec.Country.Names["en"]
			r.CountryCode = rec.Country.IsoCode
			r.City = rec.City.Names["en"]
			if len(rec.Subdivisions) > 0 {
				r.Region = rec.Subdivisions[0].Names["en"]
			}
		}
		if r.Timezone == "" {
			r.Timezone = rec.Location.TimeZone
		}
	}
}

// Close closes the readers.
func (db *LocalDB) Close() {
	if db == nil {
		return
	}
	if db.asn != nil {
		db.asn.Close()
	}
	if db.city != nil {
		db.city.Close()
	}
}

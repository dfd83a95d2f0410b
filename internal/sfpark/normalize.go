package sfpark

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"sfpark-collector/internal/model"
	"sfpark-collector/internal/parse"
)

// Result is the normalized content of one response. Rejected lists the records
// that were dropped; everything else in the response is still present.
type Result struct {
	Updated      time.Time
	DateID       int
	Locations    []model.Location
	Availability []model.Availability
	Rates        []model.Rate
	Hours        []model.OperatingHours
	Rejected     []error
}

// Normalize converts a service response into typed rows. A non-success STATUS
// yields a *ProviderError and an unparseable update timestamp fails the whole
// document; any other malformed value only drops the record it belongs to.
func Normalize(doc *Document) (*Result, error) {
	if doc == nil {
		return nil, eris.New("sfpark: nil document")
	}
	if doc.Status != StatusSuccess {
		return nil, &ProviderError{Status: doc.Status, Code: doc.ErrorCode.String(), Message: doc.Message.String()}
	}

	updated, err := parse.ParseTimestamp(doc.Updated.String())
	if err != nil {
		return nil, eris.Wrap(err, "sfpark: update timestamp")
	}

	raw, err := doc.Entries()
	if err != nil {
		return nil, eris.Wrap(err, "sfpark: AVL list")
	}

	res := &Result{Updated: updated, DateID: parse.DateID(updated)}
	for i, r := range raw {
		res.addEntry(i, r)
	}
	return res, nil
}

func (res *Result) reject(kind RecordKind, entry, index int, locID int64, err error) {
	res.Rejected = append(res.Rejected, &RecordError{Kind: kind, Entry: entry, Index: index, LocID: locID, Err: err})
}

func (res *Result) addEntry(i int, raw json.RawMessage) {
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		res.reject(KindLocation, i, -1, 0, err)
		return
	}

	loc, err := buildLocation(e)
	if err != nil {
		res.reject(KindLocation, i, -1, loc.ID, err)
		return
	}
	res.Locations = append(res.Locations, loc)

	if avl, err := res.buildAvailability(loc.ID, e); err != nil {
		res.reject(KindAvailability, i, -1, loc.ID, err)
	} else {
		res.Availability = append(res.Availability, avl)
	}

	if e.Rates != nil {
		items, err := elements(e.Rates.RS)
		if err != nil {
			res.reject(KindRate, i, -1, loc.ID, err)
		}
		for j, item := range items {
			rate, err := res.buildRate(loc.ID, item)
			if err != nil {
				res.reject(KindRate, i, j, loc.ID, err)
				continue
			}
			res.Rates = append(res.Rates, rate)
		}
	}

	if e.Hours != nil {
		items, err := elements(e.Hours.OPS)
		if err != nil {
			res.reject(KindHours, i, -1, loc.ID, err)
		}
		for j, item := range items {
			hours, err := res.buildHours(loc.ID, item)
			if err != nil {
				res.reject(KindHours, i, j, loc.ID, err)
				continue
			}
			res.Hours = append(res.Hours, hours)
		}
	}
}

// LocationID derives the stable id of an entry: OSPID for off-street
// facilities, BFID for everything else.
func LocationID(e Entry) (int64, error) {
	field, name := e.BFID, "BFID"
	if e.Type != nil && e.Type.String() == model.ParkTypeOffStreet {
		field, name = e.OSPID, "OSPID"
	}
	if field == nil {
		return 0, eris.Errorf("missing %s", name)
	}
	id, err := parseInt64(*field)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s", name)
	}
	return id, nil
}

func buildLocation(e Entry) (model.Location, error) {
	id, err := LocationID(e)
	if err != nil {
		return model.Location{}, err
	}

	loc := model.Location{
		ID:       id,
		ParkType: optString(e.Type),
		Name:     optString(e.Name),
		Descr:    optString(e.Desc),
		Inter:    optString(e.Inter),
		Tel:      optString(e.Tel),
	}
	if loc.OSPID, err = optInt64(e.OSPID); err != nil {
		return loc, eris.Wrap(err, "invalid OSPID")
	}
	if loc.BFID, err = optInt64(e.BFID); err != nil {
		return loc, eris.Wrap(err, "invalid BFID")
	}
	if loc.Pts, err = optInt(e.Pts); err != nil {
		return loc, eris.Wrap(err, "invalid PTS")
	}

	if e.Loc != nil && loc.Pts != nil {
		points, err := parse.ParseCoordinates(e.Loc.String(), *loc.Pts)
		if err != nil {
			return loc, err
		}
		if len(points) > 0 {
			loc.Lon1, loc.Lat1 = &points[0].Lon, &points[0].Lat
		}
		if len(points) > 1 {
			loc.Lon2, loc.Lat2 = &points[1].Lon, &points[1].Lat
		}
	}
	return loc, nil
}

func (res *Result) buildAvailability(locID int64, e Entry) (model.Availability, error) {
	avl := model.Availability{LocID: locID, DateID: res.DateID, UpdatedTimestamp: res.Updated}
	var err error
	if avl.Occ, err = optInt(e.Occ); err != nil {
		return avl, eris.Wrap(err, "invalid OCC")
	}
	if avl.Oper, err = optInt(e.Oper); err != nil {
		return avl, eris.Wrap(err, "invalid OPER")
	}
	return avl, nil
}

func (res *Result) buildRate(locID int64, raw json.RawMessage) (model.Rate, error) {
	var r RateEntry
	if err := json.Unmarshal(raw, &r); err != nil {
		return model.Rate{}, err
	}

	rate := model.Rate{
		LocID:  locID,
		DateID: res.DateID,
		Descr:  optString(r.Desc),
		RQ:     optString(r.RQ),
		RR:     optString(r.RR),
	}
	var err error
	if rate.Beg, err = optClock(r.Beg); err != nil {
		return rate, eris.Wrap(err, "invalid BEG")
	}
	if rate.End, err = optClock(r.End); err != nil {
		return rate, eris.Wrap(err, "invalid END")
	}
	if r.Rate != nil {
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Rate.String()), 64)
		if err != nil {
			return rate, eris.Wrap(err, "invalid RATE")
		}
		rate.Amount = &v
	}
	return rate, nil
}

func (res *Result) buildHours(locID int64, raw json.RawMessage) (model.OperatingHours, error) {
	var h HourEntry
	if err := json.Unmarshal(raw, &h); err != nil {
		return model.OperatingHours{}, err
	}

	hours := model.OperatingHours{
		LocID:   locID,
		DateID:  res.DateID,
		FromDay: optString(h.From),
		ToDay:   optString(h.To),
	}
	var err error
	if hours.Beg, err = optClock(h.Beg); err != nil {
		return hours, eris.Wrap(err, "invalid BEG")
	}
	if hours.End, err = optClock(h.End); err != nil {
		return hours, eris.Wrap(err, "invalid END")
	}
	return hours, nil
}

func optString(t *Text) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func optInt64(t *Text) (*int64, error) {
	if t == nil {
		return nil, nil
	}
	v, err := parseInt64(*t)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optInt(t *Text) (*int, error) {
	if t == nil {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(t.String()))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optClock(t *Text) (*model.TimeOfDay, error) {
	if t == nil {
		return nil, nil
	}
	parsed, err := parse.ParseClock(t.String())
	if err != nil {
		return nil, err
	}
	tod := model.NewTimeOfDay(parsed)
	return &tod, nil
}

func parseInt64(t Text) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(t.String()), 10, 64)
}

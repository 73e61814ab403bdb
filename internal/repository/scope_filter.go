package repository

import (
	"strings"

	"visitation-service/internal/models"
	"visitation-service/internal/scope"
)

// scopeCondition renders a jurisdiction scope as a SQL condition over the
// tag columns of the aliased table, using ? placeholders for later Rebind.
// A scope that matches nothing renders as FALSE so scoped listings return
// empty results instead of leaking rows.
func scopeCondition(s scope.Scope, alias string) (string, []interface{}) {
	if s.IsUnrestricted() {
		return "TRUE", nil
	}

	id, _ := s.ScopedID()
	if id == scope.SentinelID {
		return "FALSE", nil
	}

	column, ok := scopeColumn(s.Level)
	if !ok {
		return "FALSE", nil
	}

	return alias + "." + column + " = ?", []interface{}{id}
}

func scopeColumn(level models.JurisdictionLevel) (string, bool) {
	switch level {
	case models.LevelRange:
		return "range_id", true
	case models.LevelDistrict:
		return "district_id", true
	case models.LevelSubDivision:
		return "sub_division_id", true
	case models.LevelPoliceStation:
		return "police_station_id", true
	case models.LevelBeat:
		return "beat_id", true
	}
	return "", false
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

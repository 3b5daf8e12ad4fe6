package model

// Stat keys as stored by the hosted data source.
const (
	GolesBoya         = "goles_boya"
	GolesLanzamiento  = "goles_lanzamiento"
	GolesHombreMas    = "goles_hombre_mas"
	GolesPenalti      = "goles_penalti"
	GolesContraataque = "goles_contraataque"
	GolesDentro7m     = "goles_dentro_7m"
	GolesFuera7m      = "goles_fuera_7m"
	GolesTotales      = "goles_totales"

	FallosBoya         = "fallos_boya"
	FallosLanzamiento  = "fallos_lanzamiento"
	FallosHombreMas    = "fallos_hombre_mas"
	FallosPenalti      = "fallos_penalti"
	FallosContraataque = "fallos_contraataque"
	FallosDentro7m     = "fallos_dentro_7m"
	FallosFuera7m      = "fallos_fuera_7m"
	TirosTotales       = "tiros_totales"

	FaltasExclusion    = "faltas_exclusion"
	FaltasPenalti      = "faltas_penalti"
	FaltasContrafaltas = "faltas_contrafaltas"
	FaltasExpulsion    = "faltas_expulsion"

	AccionesBloqueo            = "acciones_bloqueo"
	AccionesAsistencia         = "acciones_asistencia"
	AccionesRecuperacion       = "acciones_recuperacion"
	AccionesPerdida            = "acciones_perdida"
	AccionesRebote             = "acciones_rebote"
	AccionesExclusionProvocada = "acciones_exclusion_provocada"
	AccionesPenaltiProvocado   = "acciones_penalti_provocado"

	PorteroGolesBoya         = "portero_goles_boya"
	PorteroGolesLanzamiento  = "portero_goles_lanzamiento"
	PorteroGolesHombreMenos  = "portero_goles_hombre_menos"
	PorteroGolesPenalti      = "portero_goles_penalti"
	PorteroGolesContraataque = "portero_goles_contraataque"
	PorteroGolesDentro7m     = "portero_goles_dentro_7m"
	PorteroGolesFuera7m      = "portero_goles_fuera_7m"

	PorteroParadasBoya         = "portero_paradas_boya"
	PorteroParadasLanzamiento  = "portero_paradas_lanzamiento"
	PorteroParadasHombreMenos  = "portero_paradas_hombre_menos"
	PorteroParadasPenalti      = "portero_paradas_penalti"
	PorteroParadasContraataque = "portero_paradas_contraataque"
	PorteroParadasDentro7m     = "portero_paradas_dentro_7m"
	PorteroParadasFuera7m      = "portero_paradas_fuera_7m"

	PorteroAccionesAsistencia         = "portero_acciones_asistencia"
	PorteroAccionesRecuperacion       = "portero_acciones_recuperacion"
	PorteroAccionesPerdida            = "portero_acciones_perdida"
	PorteroAccionesExclusionProvocada = "portero_acciones_exclusion_provocada"
)

// FieldGroup names a set of stat keys whose values are summed into one bucket.
type FieldGroup struct {
	Name string
	Keys []string
}

// Groups is an ordered list of bucket definitions. Order is the declared
// category order used for tables and for mix tie-breaks.
type Groups []FieldGroup

// Names returns the bucket names in declared order.
func (g Groups) Names() []string {
	out := make([]string, len(g))
	for i, fg := range g {
		out[i] = fg.Name
	}
	return out
}

// Find returns the group with the given name.
func (g Groups) Find(name string) (FieldGroup, bool) {
	for _, fg := range g {
		if fg.Name == name {
			return fg, true
		}
	}
	return FieldGroup{}, false
}

// single makes one bucket per key, named after the key's type suffix.
func single(prefix string, keys ...string) Groups {
	out := make(Groups, len(keys))
	for i, k := range keys {
		out[i] = FieldGroup{Name: k[len(prefix):], Keys: []string{k}}
	}
	return out
}

// Goal types, one bucket each.
var GoalTypes = single("goles_",
	GolesBoya, GolesLanzamiento, GolesHombreMas, GolesPenalti,
	GolesContraataque, GolesDentro7m, GolesFuera7m,
)

// Missed shot types.
var MissTypes = single("fallos_",
	FallosBoya, FallosLanzamiento, FallosHombreMas, FallosPenalti,
	FallosContraataque, FallosDentro7m, FallosFuera7m,
)

// Foul types.
var FoulTypes = single("faltas_",
	FaltasExclusion, FaltasPenalti, FaltasContrafaltas, FaltasExpulsion,
)

// General field-player actions.
var ActionTypes = single("acciones_",
	AccionesBloqueo, AccionesAsistencia, AccionesRecuperacion, AccionesPerdida,
	AccionesRebote, AccionesExclusionProvocada, AccionesPenaltiProvocado,
)

// Goals conceded by a goalkeeper, by type.
var ConcededTypes = single("portero_goles_",
	PorteroGolesBoya, PorteroGolesLanzamiento, PorteroGolesHombreMenos,
	PorteroGolesPenalti, PorteroGolesContraataque, PorteroGolesDentro7m,
	PorteroGolesFuera7m,
)

// Goalkeeper saves by type.
var SaveTypes = single("portero_paradas_",
	PorteroParadasBoya, PorteroParadasLanzamiento, PorteroParadasHombreMenos,
	PorteroParadasPenalti, PorteroParadasContraataque, PorteroParadasDentro7m,
	PorteroParadasFuera7m,
)

// Goalkeeper actions.
var GoalkeeperActionTypes = single("portero_acciones_",
	PorteroAccionesAsistencia, PorteroAccionesRecuperacion,
	PorteroAccionesPerdida, PorteroAccionesExclusionProvocada,
)

// Summary bucket names.
const (
	BucketGoals     = "goals"
	BucketMisses    = "misses"
	BucketFouls     = "fouls"
	BucketBlocks    = "blocks"
	BucketTurnovers = "turnovers"
	BucketSaves     = "saves"
	BucketConceded  = "conceded"
)

// SummaryGroups folds each category into one bucket. Totals such as
// goles_totales are recorded separately by some clients, so the summary sums
// the typed counters instead.
var SummaryGroups = Groups{
	{Name: BucketGoals, Keys: keysOf(GoalTypes)},
	{Name: BucketMisses, Keys: keysOf(MissTypes)},
	{Name: BucketFouls, Keys: keysOf(FoulTypes)},
	{Name: BucketBlocks, Keys: []string{AccionesBloqueo}},
	{Name: BucketTurnovers, Keys: []string{AccionesPerdida, PorteroAccionesPerdida}},
	{Name: BucketSaves, Keys: keysOf(SaveTypes)},
	{Name: BucketConceded, Keys: keysOf(ConcededTypes)},
}

// NamedGroups maps the CLI/API names of each category to its buckets.
var NamedGroups = map[string]Groups{
	"goals":     GoalTypes,
	"misses":    MissTypes,
	"fouls":     FoulTypes,
	"actions":   ActionTypes,
	"conceded":  ConcededTypes,
	"saves":     SaveTypes,
	"gkactions": GoalkeeperActionTypes,
	"summary":   SummaryGroups,
}

func keysOf(g Groups) []string {
	var out []string
	for _, fg := range g {
		out = append(out, fg.Keys...)
	}
	return out
}

// FieldCatalog lists every key a field-player weight map may reference.
func FieldCatalog() []string {
	var out []string
	out = append(out, keysOf(GoalTypes)...)
	out = append(out, GolesTotales)
	out = append(out, keysOf(MissTypes)...)
	out = append(out, TirosTotales)
	out = append(out, keysOf(FoulTypes)...)
	out = append(out, keysOf(ActionTypes)...)
	return out
}

// GoalkeeperCatalog lists every key a goalkeeper weight map may reference.
func GoalkeeperCatalog() []string {
	var out []string
	out = append(out, keysOf(ConcededTypes)...)
	out = append(out, keysOf(SaveTypes)...)
	out = append(out, keysOf(GoalkeeperActionTypes)...)
	return out
}

// Catalog returns the key catalog for a role.
func Catalog(r Role) []string {
	if r == RoleGoalkeeper {
		return GoalkeeperCatalog()
	}
	return FieldCatalog()
}

// InCatalog reports whether key belongs to the role's catalog.
func InCatalog(r Role, key string) bool {
	for _, k := range Catalog(r) {
		if k == key {
			return true
		}
	}
	return false
}

// Package schema defines the fixed set of listing fields collected for a property sheet.
package schema

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind describes the shape of value a field is expected to hold.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindDecimal
	KindChoice
	KindBool
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindChoice:
		return "choice"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Field is a single entry of the listing schema.
type Field struct {
	Key      string
	Category string
	Kind     Kind
	Choices  []string // only for KindChoice
}

// Category groups fields for display.
type Category struct {
	Name   string
	Fields []string
}

// Category names, in display order.
const (
	CategoryGeneral   = "General"
	CategorySurfaces  = "Surfaces"
	CategoryRooms     = "Rooms"
	CategoryFeatures  = "Features"
	CategoryCondition = "Condition & Energy"
	CategoryCharges   = "Charges"
	CategoryOwner     = "Owner"
	CategoryNotes     = "Notes"
)

// FieldCount is the number of fields on every sheet.
const FieldCount = 40

var energyClasses = []string{"A", "B", "C", "D", "E", "F", "G"}

var registry = [FieldCount]Field{
	{Key: "type_bien", Category: CategoryGeneral, Kind: KindChoice, Choices: []string{"Appartement", "Maison", "Local commercial", "Terrain"}},
	{Key: "type_transaction", Category: CategoryGeneral, Kind: KindChoice, Choices: []string{"Vente", "Location"}},
	{Key: "prix", Category: CategoryGeneral, Kind: KindInteger},
	{Key: "adresse", Category: CategoryGeneral, Kind: KindText},
	{Key: "code_postal", Category: CategoryGeneral, Kind: KindText},
	{Key: "ville", Category: CategoryGeneral, Kind: KindText},
	{Key: "etage", Category: CategoryGeneral, Kind: KindInteger},
	{Key: "nombre_etages_immeuble", Category: CategoryGeneral, Kind: KindInteger},

	{Key: "surface_habitable", Category: CategorySurfaces, Kind: KindDecimal},
	{Key: "surface_terrain", Category: CategorySurfaces, Kind: KindDecimal},

	{Key: "nombre_pieces", Category: CategoryRooms, Kind: KindInteger},
	{Key: "nombre_chambres", Category: CategoryRooms, Kind: KindInteger},
	{Key: "nombre_sdb", Category: CategoryRooms, Kind: KindInteger},
	{Key: "nombre_wc", Category: CategoryRooms, Kind: KindInteger},

	{Key: "balcon", Category: CategoryFeatures, Kind: KindBool},
	{Key: "terrasse", Category: CategoryFeatures, Kind: KindBool},
	{Key: "jardin", Category: CategoryFeatures, Kind: KindBool},
	{Key: "cave", Category: CategoryFeatures, Kind: KindBool},
	{Key: "parking", Category: CategoryFeatures, Kind: KindBool},
	{Key: "garage", Category: CategoryFeatures, Kind: KindBool},
	{Key: "piscine", Category: CategoryFeatures, Kind: KindBool},
	{Key: "ascenseur", Category: CategoryFeatures, Kind: KindBool},

	{Key: "etat_general", Category: CategoryCondition, Kind: KindChoice, Choices: []string{"Neuf", "Bon", "À rafraîchir", "À rénover"}},
	{Key: "annee_construction", Category: CategoryCondition, Kind: KindInteger},
	{Key: "dpe_classe", Category: CategoryCondition, Kind: KindChoice, Choices: energyClasses},
	{Key: "dpe_valeur", Category: CategoryCondition, Kind: KindDecimal},
	{Key: "ges_classe", Category: CategoryCondition, Kind: KindChoice, Choices: energyClasses},
	{Key: "ges_valeur", Category: CategoryCondition, Kind: KindDecimal},
	{Key: "type_chauffage", Category: CategoryCondition, Kind: KindChoice, Choices: []string{"Individuel", "Collectif"}},
	{Key: "energie_chauffage", Category: CategoryCondition, Kind: KindChoice, Choices: []string{"Gaz", "Électrique", "Fioul", "Bois", "Pompe à chaleur"}},

	{Key: "charges_copro_mois", Category: CategoryCharges, Kind: KindDecimal},
	{Key: "taxe_fonciere_an", Category: CategoryCharges, Kind: KindDecimal},
	{Key: "nombre_lots_copro", Category: CategoryCharges, Kind: KindInteger},
	{Key: "syndic", Category: CategoryCharges, Kind: KindText},

	{Key: "nom_proprietaire", Category: CategoryOwner, Kind: KindText},
	{Key: "tel_proprietaire", Category: CategoryOwner, Kind: KindText},
	{Key: "email_proprietaire", Category: CategoryOwner, Kind: KindText},

	{Key: "points_forts", Category: CategoryNotes, Kind: KindText},
	{Key: "points_faibles", Category: CategoryNotes, Kind: KindText},
	{Key: "notes_agent", Category: CategoryNotes, Kind: KindText},
}

var categoryOrder = []string{
	CategoryGeneral,
	CategorySurfaces,
	CategoryRooms,
	CategoryFeatures,
	CategoryCondition,
	CategoryCharges,
	CategoryOwner,
	CategoryNotes,
}

var index = func() map[string]int {
	m := make(map[string]int, FieldCount)
	for i, f := range registry {
		m[f.Key] = i
	}
	return m
}()

// Fields returns all fields in schema order.
func Fields() []Field {
	out := make([]Field, FieldCount)
	copy(out, registry[:])
	return out
}

// Keys returns all field keys in schema order.
func Keys() []string {
	out := make([]string, FieldCount)
	for i, f := range registry {
		out[i] = f.Key
	}
	return out
}

// Categories returns the display categories in order, each with its fields in schema order.
func Categories() []Category {
	out := make([]Category, 0, len(categoryOrder))
	for _, name := range categoryOrder {
		c := Category{Name: name}
		for _, f := range registry {
			if f.Category == name {
				c.Fields = append(c.Fields, f.Key)
			}
		}
		out = append(out, c)
	}
	return out
}

// Index returns the position of key in schema order.
func Index(key string) (int, bool) {
	i, ok := index[key]
	return i, ok
}

// Lookup returns the field definition for key.
func Lookup(key string) (Field, bool) {
	i, ok := index[key]
	if !ok {
		return Field{}, false
	}
	return registry[i], true
}

// At returns the field at position i in schema order.
func At(i int) Field {
	return registry[i]
}

// Humanize turns a field key into a display label: "nombre_chambres" -> "Nombre chambres".
func Humanize(key string) string {
	s := strings.ToLower(strings.ReplaceAll(key, "_", " "))
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

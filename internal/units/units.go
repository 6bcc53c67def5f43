// Package units converts quantities between the measurement units used
// for SPOG materials. Conversion is defined only between units of the
// same dimension class; every unit carries a multiplier into its class
// base unit, so any in-class pair converts via amount * from / to.
package units

import (
	"errors"
	"strings"
)

// Class identifies a dimension class. Units from different classes are
// never convertible.
type Class string

const (
	// ClassVolume covers liquid measures (base: millilitre).
	ClassVolume Class = "volume"
	// ClassWeight covers mass measures (base: gram).
	ClassWeight Class = "weight"
	// ClassLength covers linear measures (base: centimetre).
	ClassLength Class = "length"
	// ClassArea covers surface measures (base: square metre).
	ClassArea Class = "area"
	// ClassCount covers piece and packaging measures (base: piece).
	ClassCount Class = "count"
)

// Packaging multipliers are deployment conventions, not item-specific
// configuration. Real vendors vary; see the low-stock runbook before
// changing these.
const (
	PiecesPerPair  = 2
	PiecesPerPack  = 10
	PiecesPerDozen = 12
	PiecesPerBox   = 24
)

// ErrUnsupported indicates no conversion rule exists between the two
// units (unknown unit or cross-class request).
var ErrUnsupported = errors.New("units: unsupported conversion")

// factors maps each canonical unit to its multiplier into the class
// base unit.
var factors = map[Class]map[string]float64{
	ClassVolume: {
		"ml":   1,
		"cc":   1,
		"l":    1000,
		"floz": 29.5735295625,
		"pt":   473.176473,
		"qt":   946.352946,
		"gal":  3785.411784,
	},
	ClassWeight: {
		"mg": 0.001,
		"g":  1,
		"kg": 1000,
		"oz": 28.349523125,
		"lb": 453.59237,
	},
	ClassLength: {
		"mm": 0.1,
		"cm": 1,
		"m":  100,
		"in": 2.54,
		"ft": 30.48,
		"yd": 91.44,
	},
	ClassArea: {
		"cm2": 0.0001,
		"m2":  1,
		"in2": 0.00064516,
		"ft2": 0.09290304,
		"yd2": 0.83612736,
	},
	ClassCount: {
		"pcs":   1,
		"pair":  PiecesPerPair,
		"pack":  PiecesPerPack,
		"dozen": PiecesPerDozen,
		"box":   PiecesPerBox,
	},
}

// aliases maps common spellings onto canonical unit names.
var aliases = map[string]string{
	"milliliter":  "ml",
	"millilitre":  "ml",
	"milliliters": "ml",
	"millilitres": "ml",
	"liter":       "l",
	"litre":       "l",
	"liters":      "l",
	"litres":      "l",
	"fl oz":       "floz",
	"fl_oz":       "floz",
	"fluid ounce": "floz",
	"pint":        "pt",
	"pints":       "pt",
	"quart":       "qt",
	"quarts":      "qt",
	"gallon":      "gal",
	"gallons":     "gal",
	"gals":        "gal",
	"gram":        "g",
	"grams":       "g",
	"kilogram":    "kg",
	"kilograms":   "kg",
	"kgs":         "kg",
	"ounce":       "oz",
	"ounces":      "oz",
	"pound":       "lb",
	"pounds":      "lb",
	"lbs":         "lb",
	"millimeter":  "mm",
	"millimetre":  "mm",
	"centimeter":  "cm",
	"centimetre":  "cm",
	"meter":       "m",
	"metre":       "m",
	"meters":      "m",
	"metres":      "m",
	"inch":        "in",
	"inches":      "in",
	"foot":        "ft",
	"feet":        "ft",
	"yard":        "yd",
	"yards":       "yd",
	"sq cm":       "cm2",
	"sqcm":        "cm2",
	"sq m":        "m2",
	"sqm":         "m2",
	"sq in":       "in2",
	"sqin":        "in2",
	"sq ft":       "ft2",
	"sqft":        "ft2",
	"sq yd":       "yd2",
	"sqyd":        "yd2",
	"pc":          "pcs",
	"piece":       "pcs",
	"pieces":      "pcs",
	"ea":          "pcs",
	"each":        "pcs",
	"pairs":       "pair",
	"packs":       "pack",
	"dz":          "dozen",
	"dozens":      "dozen",
	"boxes":       "box",
}

// classIndex is built once from factors for unit lookups.
var classIndex = func() map[string]Class {
	idx := make(map[string]Class)
	for class, table := range factors {
		for unit := range table {
			idx[unit] = class
		}
	}
	return idx
}()

// Normalize canonicalizes a unit spelling. Unknown units are returned
// lowercased and trimmed so callers can echo them back in messages.
func Normalize(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if canonical, ok := aliases[u]; ok {
		return canonical
	}
	return u
}

// ClassOf reports the dimension class of a unit.
func ClassOf(unit string) (Class, bool) {
	class, ok := classIndex[Normalize(unit)]
	return class, ok
}

// Supported reports whether Convert can translate between the two
// units without falling back.
func Supported(from, to string) bool {
	fromClass, ok := ClassOf(from)
	if !ok {
		return false
	}
	toClass, ok := ClassOf(to)
	if !ok {
		return false
	}
	return fromClass == toClass
}

// Convert translates amount from one unit into another. Identical units
// (after normalization) pass through unchanged. Cross-class or unknown
// units return ErrUnsupported.
func Convert(amount float64, from, to string) (float64, error) {
	src := Normalize(from)
	dst := Normalize(to)
	if src == dst {
		return amount, nil
	}
	srcClass, ok := classIndex[src]
	if !ok {
		return 0, ErrUnsupported
	}
	dstClass, ok := classIndex[dst]
	if !ok || srcClass != dstClass {
		return 0, ErrUnsupported
	}
	table := factors[srcClass]
	return amount * table[src] / table[dst], nil
}

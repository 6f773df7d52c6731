package location

import (
	"fmt"
	"strings"

	"vroot/internal/backend"
	"vroot/internal/constants"
)

// Category groups entries for ordering and visibility.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryRemovable
	CategoryCard
	CategoryGames
	CategoryAlbum
	CategoryUser
	CategorySystem
	CategorySafe
	CategoryFirmwareInfo
	CategoryNetwork
)

func (c Category) String() string {
	switch c {
	case CategoryRemovable:
		return "removable"
	case CategoryCard:
		return "card"
	case CategoryGames:
		return "games"
	case CategoryAlbum:
		return "album"
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	case CategorySafe:
		return "safe"
	case CategoryFirmwareInfo:
		return "firmware-info"
	case CategoryNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// rank is the fixed sort priority of each category.
var rank = map[Category]int{
	CategoryRemovable:    0,
	CategoryCard:         1,
	CategoryGames:        2,
	CategoryAlbum:        3,
	CategoryUser:         4,
	CategorySystem:       5,
	CategorySafe:         6,
	CategoryFirmwareInfo: 7,
	CategoryNetwork:      8,
}

const unrankedSortKey = 99

// SortKey returns the rank of c; unrecognized categories sort last.
func (c Category) SortKey() int {
	if r, ok := rank[c]; ok {
		return r
	}
	return unrankedSortKey
}

type wellKnown struct {
	category Category
	label    string
}

// wellKnownNative maps native identities of fixed backends to their category
// and stable label.
var wellKnownNative = map[string]wellKnown{
	constants.NativeCard:     {CategoryCard, constants.LabelCard},
	constants.NativeGames:    {CategoryGames, constants.LabelGames},
	constants.NativeAlbum:    {CategoryAlbum, constants.LabelAlbum},
	constants.NativeUser:     {CategoryUser, constants.LabelUser},
	constants.NativeSystem:   {CategorySystem, constants.LabelSystem},
	constants.NativeSafe:     {CategorySafe, constants.LabelSafe},
	constants.NativeFirmware: {CategoryFirmwareInfo, constants.LabelFirmwareInfo},
}

// hiddenIDs are reserved partitions kept out of listings unless hidden mode
// is requested. Keys are canonical ids without the separator.
var hiddenIDs = map[string]bool{
	constants.LabelAlbum:        true,
	constants.LabelGames:        true,
	constants.LabelFirmwareInfo: true,
	constants.LabelSafe:         true,
	constants.LabelUser:         true,
	constants.LabelSystem:       true,
}

// canonical is the result of applying the table to one record.
type canonical struct {
	category Category
	base     string // id without separator, before collision suffixes
	label    string // without read-only marker
}

func canonicalize(r backend.Record) canonical {
	switch r.Kind {
	case backend.KindPartition, backend.KindCard:
		if wk, ok := wellKnownNative[r.NativeID]; ok {
			return canonical{category: wk.category, base: wk.label, label: wk.label}
		}
	case backend.KindMassStorage:
		return canonical{
			category: CategoryRemovable,
			base:     sanitizeID(r.NativeID),
			label:    deviceLabel(constants.LabelUSB, r),
		}
	case backend.KindOptical:
		return canonical{
			category: CategoryRemovable,
			base:     sanitizeID(r.NativeID),
			label:    deviceLabel(constants.LabelOptical, r),
		}
	case backend.KindNetwork:
		return canonical{category: CategoryNetwork, base: sanitizeID(r.NativeID), label: displayName(r)}
	}
	return canonical{category: CategoryUnknown, base: sanitizeID(r.NativeID), label: displayName(r)}
}

func displayName(r backend.Record) string {
	if r.Name != "" {
		return r.Name
	}
	return r.NativeID
}

// deviceLabel renders "PREFIX(native)" and, when anything is known about the
// medium, " [FSTYPE vendor product NGB]".
func deviceLabel(prefix string, r backend.Record) string {
	label := fmt.Sprintf("%s(%s)", prefix, r.NativeID)
	product := strings.TrimSpace(strings.TrimSpace(r.Vendor) + " " + strings.TrimSpace(r.Product))
	if r.FSType == "" && product == "" && r.Capacity == 0 {
		return label
	}
	if product == "" {
		product = constants.UnknownProduct
	}
	parts := make([]string, 0, 3)
	if r.FSType != "" {
		parts = append(parts, strings.ToUpper(r.FSType))
	}
	parts = append(parts, product)
	if r.Capacity > 0 {
		parts = append(parts, fmt.Sprintf("%dGB", roundGiB(r.Capacity)))
	}
	return label + " [" + strings.Join(parts, " ") + "]"
}

const gib = 1 << 30

func roundGiB(n uint64) uint64 {
	return (n + gib/2) / gib
}

// sanitizeID turns a native identity into something usable as a path
// prefix: separators, the location separator and control bytes become '_'.
func sanitizeID(native string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r == constants.LocationSeparator, r == '/', r == '\\', r < 0x20, r == 0x7f:
			return '_'
		}
		return r
	}, strings.TrimSpace(native))
	if s == "" {
		return "_"
	}
	return s
}

// markReadOnly appends the read-only marker unless already present.
func markReadOnly(label string) string {
	if strings.HasSuffix(label, constants.ReadOnlyMarker) {
		return label
	}
	return label + constants.ReadOnlyMarker
}

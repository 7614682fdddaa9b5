// Districts — the spatial and economic unit of the city.
package world

import "math"

// Resource enumerates the tradeable resource kinds a district stocks.
type Resource string

const (
	ResourceFood      Resource = "food"
	ResourceWater     Resource = "water"
	ResourceEnergy    Resource = "energy"
	ResourceMaterials Resource = "materials"
	ResourceLuxuries  Resource = "luxuries"
)

// Resources lists all resource kinds in stable order.
func Resources() []Resource {
	return []Resource{ResourceFood, ResourceWater, ResourceEnergy, ResourceMaterials, ResourceLuxuries}
}

// Stock tracks one resource in one district.
// Invariant: 0 <= Current <= Capacity.
type Stock struct {
	Capacity float64 `json:"capacity"`
	Current  float64 `json:"current"`
	Regen    float64 `json:"regen"` // Units regenerated per tick before demand.
}

// Ratio returns Current/Capacity, or 0 for an empty stock.
func (s *Stock) Ratio() float64 {
	if s.Capacity <= 0 {
		return 0
	}
	return s.Current / s.Capacity
}

// Modifiers are the continuous per-district condition scalars, each in [0,1].
type Modifiers struct {
	Unrest     float64 `json:"unrest"`
	Pollution  float64 `json:"pollution"`
	Prosperity float64 `json:"prosperity"`
	Security   float64 `json:"security"`
}

// Coord is an optional 3D position for a district. Districts without
// authored coordinates use the zero value and HasCoord=false.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance returns the Euclidean distance between two coordinates.
func Distance(a, b Coord) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// District is one neighborhood of the city.
type District struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Population int                 `json:"population"`
	Stocks     map[Resource]*Stock `json:"stocks"`
	Modifiers  Modifiers           `json:"modifiers"`
	Coord      Coord               `json:"coord"`
	HasCoord   bool                `json:"has_coord"`
	Adjacent   []string            `json:"adjacent"` // Symmetric, never self-referential.
}

// Stock returns the stock for a resource, or nil if the district has none.
func (d *District) Stock(r Resource) *Stock {
	return d.Stocks[r]
}

// ClampStocks forces every stock back into [0, Capacity].
func (d *District) ClampStocks() {
	for _, s := range d.Stocks {
		if s.Current < 0 {
			s.Current = 0
		}
		if s.Current > s.Capacity {
			s.Current = s.Capacity
		}
	}
}

// ClampModifiers forces every modifier back into [0,1].
func (d *District) ClampModifiers() {
	d.Modifiers.Unrest = Clamp01(d.Modifiers.Unrest)
	d.Modifiers.Pollution = Clamp01(d.Modifiers.Pollution)
	d.Modifiers.Prosperity = Clamp01(d.Modifiers.Prosperity)
	d.Modifiers.Security = Clamp01(d.Modifiers.Security)
}

// Clamp01 bounds a scalar to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

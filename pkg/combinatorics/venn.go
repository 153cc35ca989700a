package combinatorics

import (
	"fmt"

	"github.com/ritzau/pangenome/pkg/model"
	"github.com/ritzau/pangenome/pkg/presence"
)

// Venn3 holds the seven disjoint region sizes of a three-genome Venn diagram.
// X, Y and Z are the universe's genomes in order.
type Venn3 struct {
	Genomes [3]model.Genome `json:"genomes" yaml:"genomes"`
	XOnly   int             `json:"x_only" yaml:"x_only"`
	YOnly   int             `json:"y_only" yaml:"y_only"`
	ZOnly   int             `json:"z_only" yaml:"z_only"`
	XY      int             `json:"xy_only" yaml:"xy_only"`
	XZ      int             `json:"xz_only" yaml:"xz_only"`
	YZ      int             `json:"yz_only" yaml:"yz_only"`
	XYZ     int             `json:"xyz" yaml:"xyz"`
}

// Regions returns the sizes in the conventional
// (X, Y, Z, X∩Y, X∩Z, Y∩Z, X∩Y∩Z) order
func (v Venn3) Regions() [7]int {
	return [7]int{v.XOnly, v.YOnly, v.ZOnly, v.XY, v.XZ, v.YZ, v.XYZ}
}

// Subsets returns the sizes in the (Abc, aBc, ABc, abC, AbC, aBC, ABC)
// order that common Venn plotting libraries expect
func (v Venn3) Subsets() [7]int {
	return [7]int{v.XOnly, v.YOnly, v.XY, v.ZOnly, v.XZ, v.YZ, v.XYZ}
}

// Total returns the sum of all regions
func (v Venn3) Total() int {
	t := 0
	for _, n := range v.Regions() {
		t += n
	}
	return t
}

// RegionLabels names the regions in Regions order
func (v Venn3) RegionLabels() [7]string {
	x, y, z := v.Genomes[0], v.Genomes[1], v.Genomes[2]
	return [7]string{
		fmt.Sprintf("%s only", x),
		fmt.Sprintf("%s only", y),
		fmt.Sprintf("%s only", z),
		fmt.Sprintf("%s∩%s only", x, y),
		fmt.Sprintf("%s∩%s only", x, z),
		fmt.Sprintf("%s∩%s only", y, z),
		fmt.Sprintf("%s∩%s∩%s", x, y, z),
	}
}

// Venn decomposes the clusters of a three-genome universe into the seven
// exact-membership regions. Any other genome count is rejected.
func Venn(m *presence.Matrix) (Venn3, error) {
	if m.Universe.Len() != 3 {
		return Venn3{}, &model.UnsupportedGenomeCountError{Count: m.Universe.Len()}
	}

	v := Venn3{Genomes: [3]model.Genome{m.Universe.At(0), m.Universe.At(1), m.Universe.At(2)}}
	for _, pv := range m.Vectors {
		switch pv.Pattern() {
		case "100":
			v.XOnly++
		case "010":
			v.YOnly++
		case "001":
			v.ZOnly++
		case "110":
			v.XY++
		case "101":
			v.XZ++
		case "011":
			v.YZ++
		case "111":
			v.XYZ++
		default:
			return Venn3{}, fmt.Errorf("cluster %s has no genome present", pv.ClusterID)
		}
	}
	return v, nil
}

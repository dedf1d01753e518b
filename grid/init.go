package grid

import "math"

// Constants of the initial profile.
const (
	UHi = 0.5
	ULo = -0.5
	VHi = 0.1
	VLo = -0.1

	// Width is the length scale of the tanh fronts.
	Width = 16.0
)

func front(lo, hi float64, k, n int) float64 {
	return lo + (hi-lo)*0.5*(1.0+math.Tanh(float64(k-n/2)/Width))
}

/*
Init sets u and v to the initial profile. For the cell at global row i and
column j:

	u = ULo + (UHi-ULo)·0.5·(1 + tanh((i - N/2)/Width))
	v = VLo + (VHi-VLo)·0.5·(1 + tanh((j - N/2)/Width))

where N/2 is an integer division. u varies only along rows and v only along
columns, so the profile has one front in each direction.

u and v must cover the same block.
*/
func Init(u, v *Field, exec Executor) error {
	n := u.n
	return exec.Range(0, u.rows, func(low, high int) error {
		for i := low; i < high; i++ {
			uRow := u.Row(i)
			vRow := v.Row(i)
			uValue := front(ULo, UHi, u.start+i, n)
			for j := range uRow {
				uRow[j] = uValue
				vRow[j] = front(VLo, VHi, j, n)
			}
		}
		return nil
	})
}

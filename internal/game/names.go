package game

var displayNames = []string{
	"Bamboo Walker",
	"sky_bridge_99",
	"Pole Vaulter",
	"n1nja_st1ck",
	"Gap Jumper",
	"ledge_lord",
	"Quiet Monkey",
	"Stick Figure",
	"mr.plank",
	"Canyon Kid",
	"far_reach_x",
	"Tiny Hero",
	"Cliff Hanger",
	"long_arm_88",
	"Rooftop Runner",
	"Edge Case",
	"Lucky Landing",
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomName picks a cosmetic display name.
func RandomName(src Source) string {
	return displayNames[src.IntN(len(displayNames))]
}

// RandomString returns n characters drawn from alphabet, or from
// [a-zA-Z0-9] when alphabet is empty.
func RandomString(src Source, n int, alphabet string) string {
	if alphabet == "" {
		alphabet = alphanumeric
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[src.IntN(len(alphabet))]
	}
	return string(b)
}

package robustnas

// Source identifies the image dataset a result was evaluated on.
type Source string

// Key identifies an evaluation condition: the clean baseline, an
// adversarial attack, or a common corruption type.
type Key string

// Measure identifies what a result table records.
type Measure string

// Data sources.
const (
	CIFAR10    Source = "cifar10"
	CIFAR100   Source = "cifar100"
	ImageNet16 Source = "ImageNet16-120"
)

// Measures.
const (
	Accuracy   Measure = "accuracy"
	Confidence Measure = "confidence"
	// ConfusionMatrix tables hold one matrix per UID (one per epsilon
	// for parameterized keys). The file suffix is "cm".
	ConfusionMatrix Measure = "cm"
)

// KeyClean is the evaluation on unperturbed test data.
const KeyClean Key = "clean"

// Sources lists all data sources in canonical order.
var Sources = []Source{CIFAR10, CIFAR100, ImageNet16}

// Measures lists all measures in canonical order.
var Measures = []Measure{Accuracy, Confidence, ConfusionMatrix}

// KeysClean holds the single clean-evaluation key.
var KeysClean = []Key{KeyClean}

// KeysAdv lists the adversarial attack keys. Attack keys carry the
// threat-model norm after "@"; all recorded attacks are Linf-bounded
// and parameterized by an epsilon grid (see Dataset.EpsilonGrid).
var KeysAdv = []Key{
	"aa_apgd-ce@Linf",
	"aa_square@Linf",
	"fgsm@Linf",
	"pgd@Linf",
}

// KeysCC lists the common-corruption keys.
var KeysCC = []Key{
	"brightness",
	"contrast",
	"defocus_blur",
	"elastic_transform",
	"fog",
	"frost",
	"gaussian_noise",
	"glass_blur",
	"impulse_noise",
	"jpeg_compression",
	"motion_blur",
	"pixelate",
	"shot_noise",
	"snow",
	"zoom_blur",
}

// KeysAll lists every evaluation key: clean, then adversarial, then
// corruption, in canonical order.
var KeysAll = concatKeys(KeysClean, KeysAdv, KeysCC)

func concatKeys(groups ...[]Key) []Key {
	var all []Key
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

// ValidSource reports whether s names a known data source.
func ValidSource(s Source) bool {
	for _, v := range Sources {
		if v == s {
			return true
		}
	}
	return false
}

// ValidMeasure reports whether m names a known measure.
func ValidMeasure(m Measure) bool {
	for _, v := range Measures {
		if v == m {
			return true
		}
	}
	return false
}

// ValidKey reports whether k names a known evaluation key.
func ValidKey(k Key) bool {
	for _, v := range KeysAll {
		if v == k {
			return true
		}
	}
	return false
}

// Adversarial reports whether k is an adversarial attack key.
func Adversarial(k Key) bool {
	for _, v := range KeysAdv {
		if v == k {
			return true
		}
	}
	return false
}

// Corruption reports whether k is a common-corruption key.
func Corruption(k Key) bool {
	for _, v := range KeysCC {
		if v == k {
			return true
		}
	}
	return false
}

// SupportsCombination reports whether evaluations exist for the given
// source and key. The corruption benchmark was never generated for
// ImageNet16-120, so that block of combinations has no data.
func SupportsCombination(s Source, k Key) bool {
	if s == ImageNet16 && Corruption(k) {
		return false
	}
	return true
}

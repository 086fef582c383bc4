package summary

import (
	"strings"
	"unicode"
)

// Presentational names for PyTorch classes, in Keras vocabulary.
var typeNameTable = [...]struct {
	Native    string
	Presented string
}{
	{"Linear", "Dense"},
	{"Bilinear", "Dense"},
	{"Conv1d", "Conv1D"},
	{"Conv2d", "Conv2D"},
	{"Conv3d", "Conv3D"},
	{"ConvTranspose1d", "Conv1DTranspose"},
	{"ConvTranspose2d", "Conv2DTranspose"},
	{"ConvTranspose3d", "Conv3DTranspose"},
	{"MaxPool1d", "MaxPooling1D"},
	{"MaxPool2d", "MaxPooling2D"},
	{"MaxPool3d", "MaxPooling3D"},
	{"AvgPool1d", "AveragePooling1D"},
	{"AvgPool2d", "AveragePooling2D"},
	{"AvgPool3d", "AveragePooling3D"},
	{"AdaptiveAvgPool2d", "AdaptiveAveragePooling2D"},
	{"AdaptiveMaxPool2d", "AdaptiveMaxPooling2D"},
	{"BatchNorm1d", "BatchNormalization"},
	{"BatchNorm2d", "BatchNormalization"},
	{"BatchNorm3d", "BatchNormalization"},
	{"LayerNorm", "LayerNormalization"},
	{"GroupNorm", "GroupNormalization"},
	{"Dropout", "Dropout"},
	{"Dropout2d", "SpatialDropout2D"},
	{"Flatten", "Flatten"},
	{"Unflatten", "Reshape"},
	{"Embedding", "Embedding"},
	{"LSTM", "LSTM"},
	{"GRU", "GRU"},
	{"RNN", "SimpleRNN"},
	{"Upsample", "UpSampling2D"},
	{"ZeroPad2d", "ZeroPadding2D"},
	{"Softmax", "Softmax"},
}

// Activation-only classes, which are left out of imperative summaries.
var skipTable = [...]string{
	"ReLU",
	"ReLU6",
	"LeakyReLU",
	"PReLU",
	"ELU",
	"SELU",
	"GELU",
	"SiLU",
	"Mish",
	"Sigmoid",
	"Tanh",
	"Hardswish",
	"Hardsigmoid",
}

var typeNames map[string]string
var skipSet map[string]bool

func init() {
	typeNames = make(map[string]string, len(typeNameTable))
	for _, entry := range typeNameTable {
		typeNames[entry.Native] = entry.Presented
	}
	skipSet = make(map[string]bool, len(skipTable))
	for _, name := range skipTable {
		skipSet[name] = true
	}
}

// NormalizeLayerType maps a framework class name to its presentational name.
// Unknown names pass through unchanged.
func NormalizeLayerType(name string) string {
	if presented, ok := typeNames[name]; ok {
		return presented
	}
	return name
}

func IsSkipped(name string) bool {
	return skipSet[name]
}

// snakeCase converts "Conv2D" into "conv2d" and "MaxPooling2D" into
// "max_pooling2d", matching how Keras names layers by default.
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && unicode.IsLower(runes[i-1]) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

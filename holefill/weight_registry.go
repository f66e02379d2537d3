package holefill

import (
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Names of the built in weight functions.
const (
	DefaultWeightName       = "default"
	GaussianWeightName      = "gaussian"
	InverseLinearWeightName = "inverse_linear"
)

// A WeightFunctionConstructor builds a weight function from user supplied attributes.
type WeightFunctionConstructor func(attributes map[string]interface{}) (WeightFunction, error)

var (
	weightRegistryMu sync.RWMutex
	weightRegistry   = map[string]WeightFunctionConstructor{}
)

func init() {
	RegisterWeightFunction(DefaultWeightName, func(attributes map[string]interface{}) (WeightFunction, error) {
		w := NewDefaultWeightFunction()
		if err := decodeWeightAttributes(attributes, w); err != nil {
			return nil, err
		}
		return w, w.Validate()
	})
	RegisterWeightFunction(GaussianWeightName, func(attributes map[string]interface{}) (WeightFunction, error) {
		w := &GaussianWeightFunction{Sigma: DefaultSigma}
		if err := decodeWeightAttributes(attributes, w); err != nil {
			return nil, err
		}
		return w, w.Validate()
	})
	RegisterWeightFunction(InverseLinearWeightName, func(attributes map[string]interface{}) (WeightFunction, error) {
		w := &InverseLinearWeightFunction{Epsilon: DefaultEpsilon}
		if err := decodeWeightAttributes(attributes, w); err != nil {
			return nil, err
		}
		return w, w.Validate()
	})
}

// RegisterWeightFunction makes a weight function constructible by name. Registering the same
// name twice panics.
func RegisterWeightFunction(name string, constructor WeightFunctionConstructor) {
	weightRegistryMu.Lock()
	defer weightRegistryMu.Unlock()
	if _, ok := weightRegistry[name]; ok {
		panic(errors.Errorf("trying to register two weight functions with the same name: %s", name))
	}
	if constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for weight function: %s", name))
	}
	weightRegistry[name] = constructor
}

// NewWeightFunction constructs the weight function registered under name. An empty name
// selects the default weight function.
func NewWeightFunction(name string, attributes map[string]interface{}) (WeightFunction, error) {
	if name == "" {
		name = DefaultWeightName
	}
	weightRegistryMu.RLock()
	constructor, ok := weightRegistry[name]
	weightRegistryMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown weight function %q, expected one of %v", name, RegisteredWeightFunctions())
	}
	w, err := constructor(attributes)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid attributes for weight function %q", name)
	}
	return w, nil
}

// RegisteredWeightFunctions returns the sorted names of every registered weight function.
func RegisteredWeightFunctions() []string {
	weightRegistryMu.RLock()
	defer weightRegistryMu.RUnlock()
	names := lo.Keys(weightRegistry)
	sort.Strings(names)
	return names
}

// decodeWeightAttributes decodes attributes over the defaults already set in out. Unknown
// attributes are rejected.
func decodeWeightAttributes(attributes map[string]interface{}, out interface{}) error {
	if len(attributes) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(attributes)
}

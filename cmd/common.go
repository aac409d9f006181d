/*
Copyright © 2025 Mykola Lutsiv

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mlutsiv/draftforge/internal/persona"
	"github.com/mlutsiv/draftforge/internal/provider"
	"github.com/mlutsiv/draftforge/internal/rubric"
)

// buildProvider constructs the LLM client from CLI parameters, falling back
// to config values for anything left empty.
func buildProvider(name, ollamaURL, ollamaModel, openrouterKey, openrouterModel string) (provider.Completer, error) {
	if openrouterKey == "" {
		openrouterKey = viper.GetString("openrouter.api_key")
	}

	switch name {
	case "ollama":
		return provider.NewOllama(ollamaURL, ollamaModel), nil
	case "openrouter":
		return provider.NewOpenRouter(openrouterKey, "", openrouterModel), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (available: ollama, openrouter)", name)
	}
}

// buildLogger returns the pipeline logger. Verbose mode uses the development
// encoder with debug level; otherwise production JSON at info level.
func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// personaRegistry merges config-defined personas over the built-ins.
func personaRegistry() *persona.Registry {
	return persona.NewRegistry(viper.GetStringMapString("personas"))
}

// rubricWeights reads the optional rubric weight table from config. Checks
// absent from the table keep weight 1.0.
func rubricWeights() rubric.Weights {
	raw := viper.GetStringMap("rubric.weights")
	if len(raw) == 0 {
		return nil
	}
	w := make(rubric.Weights, len(raw))
	for name := range raw {
		w[name] = viper.GetFloat64("rubric.weights." + name)
	}
	return w
}

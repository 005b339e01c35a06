package config

import "reflect"

// mapstructureタグから環境変数名を集める
func envKeys(target interface{}) []string {
	t := reflect.TypeOf(target)
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("mapstructure"); tag != "" && tag != "-" {
			keys = append(keys, tag)
		}
	}
	return keys
}

// Package io reads and writes networks and estimate results.
//
// # Network Format
//
// Networks are exchanged as one object of element tables. JSON, TOML and
// YAML share the same keys:
//
//	{
//	  "name": "two-bus",
//	  "buses": [
//	    {"id": 0, "name": "A", "vn_kv": 220},
//	    {"id": 1, "name": "B", "vn_kv": 110}
//	  ],
//	  "ext_grids": [{"bus": 0, "vm_pu": 1.02, "va_degree": 5}],
//	  "transformers": [
//	    {"hv_bus": 0, "lv_bus": 1, "vn_hv_kv": 220, "vn_lv_kv": 110, "shift_degree": 30}
//	  ],
//	  "lines": [{"from_bus": 0, "to_bus": 2}],
//	  "switches": [{"bus": 0, "element": 0, "type": "l", "closed": false}]
//	}
//
// Omitted "id" fields default to the element's position in its table.
// Omitted "in_service" and "closed" flags default to true. A missing
// "shift_degree" means the transformer has no phase shift.
//
// # Import
//
// [Import] picks the decoder from the file extension. [ReadJSON], [ReadTOML]
// and [ReadYAML] decode from any io.Reader. All of them validate referential
// integrity and return coded errors from [github.com/matzehuels/voltseed/pkg/errors]:
//
//	net, err := io.Import("grid.toml")
//	if errors.Is(err, errors.ErrCodeInvalidNetwork) {
//	    // duplicate IDs or dangling bus references
//	}
//
// # Export
//
// [WriteJSON] and [ExportJSON] write every field explicitly, so exported
// networks re-import identically.
//
// # Results
//
// [WriteResultJSON] and [ReadResultJSON] exchange estimate tables:
//
//	{"buses": [{"bus": 0, "vm_pu": 1.02, "va_degree": 5}, {"bus": 7, "vm_pu": null, "va_degree": null}]}
package io

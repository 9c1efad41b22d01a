package airports

// Tracked is the fixed set of origin airports this system monitors. The
// pipeline is tuned for a small set; growing it means revisiting provider
// quotas and the pacing delays, not just this list.
var Tracked = []string{"CCS", "MAR", "VLN", "PMV", "BLA"}

// Names maps IATA codes of the wider Venezuelan network to display names.
// Name returns the display name for an IATA code, or the code itself when
// the airport is outside the known network.
func Name(iata string) string {
	if name, ok := Names[iata]; ok {
		return name
	}
	return iata
}

var Names = map[string]string{
	"CCS": "Maiquetía",
	"VLN": "Valencia",
	"MAR": "Maracaibo",
	"BLA": "Barcelona",
	"PMV": "Porlamar",
	"PZO": "Puerto Ordaz",
	"STD": "Santo Domingo",
	"VIG": "El Vigía",
	"BRM": "Barquisimeto",
	"LSP": "Las Piedras",
}

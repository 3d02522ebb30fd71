package domain

import "fmt"

var federalDistrictRegions = []string{
	"Plano Piloto", "Gama", "Taguatinga", "Brazlândia", "Sobradinho", "Planaltina",
	"Paranoá", "Núcleo Bandeirante", "Ceilândia", "Guará", "Cruzeiro", "Samambaia",
	"Santa Maria", "São Sebastião", "Recanto das Emas", "Lago Sul", "Riacho Fundo",
	"Lago Norte", "Candangolândia", "Águas Claras", "Riacho Fundo II", "Sudoeste/Octogonal",
	"Varjão", "Park Way", "SCIA/Estrutural", "Sobradinho II", "Jardim Botânico", "Itapoã",
	"SIA", "Vicente Pires", "Fercal", "Sol Nascente/Pôr do Sol", "Arniqueira",
	"Arapoanga", "Água Quente",
}

// DefaultRegions returns the administrative regions of the Federal District,
// numbered ra-01 onwards in their official order.
func DefaultRegions() []Region {
	out := make([]Region, len(federalDistrictRegions))
	for i, name := range federalDistrictRegions {
		out[i] = Region{ID: fmt.Sprintf("ra-%02d", i+1), Name: name}
	}
	return out
}

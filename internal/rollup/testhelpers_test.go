package rollup

import (
	"github.com/sells-group/emission-rollup/internal/catalog"
	"github.com/sells-group/emission-rollup/internal/model"
)

// Stage codes from the embedded catalog, by outcome.
const (
	codeEmitted     = "DT1052_16:UC_Z24IF7" // CERTIDÃO EMITIDA
	codeDelivered   = "DT1052_16:SUCCESS"   // CERTIDÃO ENTREGUE
	codeReady       = "DT1052_16:UC_7F8RGU" // PRONTA PARA EMISSÃO
	codeAwaiting    = "DT1052_34:UC_7F8RGU" // AGUARDANDO CARTÓRIO ORIGEM
	codeReturned    = "DT1052_16:UC_8D1OZA" // DEVOLUÇÃO ADM
	codeDispensed   = "DT1052_34:UC_X0D5TQ" // CERTIDÃO DISPENSADA
	codeDuplicate   = "DT1052_16:UC_3S6V7P" // SOLICITAÇÃO DUPLICADA
	codeUnknown     = "DT1052_99:UC_NOPE00"
	codeFallbackNew = "DT1052_99:NEW"
)

func testCatalog() *catalog.Catalog {
	return catalog.Default()
}

func rec(family, requester, code string) model.Record {
	return model.Record{
		RecordID:    family + "-" + requester + "-" + code,
		FamilyID:    family,
		RequesterID: requester,
		PipelineID:  "16",
		StageCode:   model.Stage(code),
	}
}

func normalized(records ...model.Record) []model.NormalizedRecord {
	n := NewNormalizer(testCatalog())
	out, _, err := n.NormalizeAll(records)
	if err != nil {
		panic(err)
	}
	return out
}

func withOutcome(family string, outcomes ...model.OutcomeClass) []model.NormalizedRecord {
	out := make([]model.NormalizedRecord, len(outcomes))
	for i, o := range outcomes {
		out[i] = model.NormalizedRecord{
			FamilyID:       family,
			RequesterID:    "R1",
			CanonicalStage: string(o),
			Outcome:        o,
			ResolvedBy:     model.ResolvedExact,
		}
	}
	return out
}

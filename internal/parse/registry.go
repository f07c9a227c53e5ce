package parse

import "net/http"

// Parser ids referenced by source descriptors.
const (
	IDGenericTable = "generic_table"
	IDDivList      = "div_list"
	IDFIEPEditais  = "fiep_editais"
	IDFIESCMural   = "fiesc_mural"
	IDFIEMSMural   = "fiems_mural"
	IDBNCProcess   = "bnc_process"
)

// DefaultRegistry returns a registry with every shipped parser registered.
// detailClient performs the BNC secondary detail fetches; nil disables them.
func DefaultRegistry(detailClient *http.Client) *Registry {
	r := NewRegistry()
	r.Register(IDGenericTable, &GenericTable{})
	r.Register(IDDivList, &DivList{})
	r.Register(IDFIEPEditais, &FIEPEditais{})
	r.Register(IDFIESCMural, NewFIESCMural())
	r.Register(IDFIEMSMural, NewFIEMSMural())
	r.Register(IDBNCProcess, &BNCProcess{Client: detailClient})
	return r
}

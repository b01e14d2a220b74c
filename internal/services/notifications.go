package services

import (
	"fmt"

	"dicipfinance/internal/backend"
	"dicipfinance/internal/core"
)

// Notification is the transient message shown to the user after an action.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// IsError reports whether the notification describes a failure.
func (n Notification) IsError() bool {
	return n.Variant == VariantDestructive
}

type action int

const (
	actionCreate action = iota
	actionUpdate
	actionDelete
)

func (a action) op() string {
	switch a {
	case actionCreate:
		return "create"
	case actionUpdate:
		return "update"
	default:
		return "delete"
	}
}

type wording struct {
	title string
	// desc takes the record name and, when withSuffix is set, the persistence suffix.
	desc       string
	withSuffix bool
	participle bool
}

var wordings = map[core.Entity]map[action]wording{
	core.EntityCategory: {
		actionCreate: {title: "Categoría Agregada", desc: `La categoría "%s" ha sido agregada.`},
		actionUpdate: {title: "Categoría Actualizada", desc: `La categoría "%s" ha sido actualizada.`},
		actionDelete: {title: "Categoría Eliminada", desc: `La categoría "%s" ha sido eliminada.`},
	},
	core.EntityTransaction: {
		actionCreate: {title: "Transacción Agregada", desc: `La transacción "%s" se agregó%s.`, withSuffix: true},
		actionUpdate: {title: "Transacción Actualizada", desc: `La transacción "%s" se actualizó%s.`, withSuffix: true},
		actionDelete: {title: "Transacción Eliminada", desc: `La transacción "%s" ha sido eliminada%s.`, withSuffix: true, participle: true},
	},
	core.EntityBudgetGoal: {
		actionCreate: {title: "Objetivo Agregado", desc: `El objetivo para "%s" se agregó%s.`, withSuffix: true},
		actionUpdate: {title: "Objetivo Actualizado", desc: `El objetivo para "%s" se actualizó%s.`, withSuffix: true},
		actionDelete: {title: "Objetivo de Presupuesto Eliminado", desc: `El objetivo para "%s" ha sido eliminado%s.`, withSuffix: true, participle: true},
	},
}

var errorSubjects = map[core.Entity]string{
	core.EntityCategory:    `la categoría "%s"`,
	core.EntityTransaction: `la transacción "%s"`,
	core.EntityBudgetGoal:  `el objetivo de "%s"`,
}

func persistenceSuffix(kind backend.Kind, participle bool) string {
	switch {
	case kind == backend.SimulatedKind && participle:
		return " (los cambios son locales en esta simulación)"
	case kind == backend.SimulatedKind:
		return " (los cambios son locales)"
	case kind.IsRemote() && participle:
		return " y guardado en línea"
	case kind.IsRemote():
		return " y guardó en línea"
	case participle:
		return " y guardado localmente"
	default:
		return " y guardó localmente"
	}
}

func successNotification(src backend.Source, entity core.Entity, a action, name string) Notification {
	w := wordings[entity][a]
	title := w.title
	desc := fmt.Sprintf(w.desc, name)
	if w.withSuffix {
		kind := src.Kind()
		if !src.Persists(entity) {
			kind = backend.SimulatedKind
			title += " (Simulado)"
		}
		desc = fmt.Sprintf(w.desc, name, persistenceSuffix(kind, w.participle))
	}
	return Notification{Title: title, Description: desc, Variant: VariantDefault}
}

func saveErrorNotification(src backend.Source, entity core.Entity, name string) Notification {
	where := "localmente"
	if src.Kind().IsRemote() {
		where = "en línea"
	}
	subject := fmt.Sprintf(errorSubjects[entity], name)
	return Notification{
		Title:       "Error al Guardar",
		Description: fmt.Sprintf("No se pudieron guardar los cambios para %s %s.", subject, where),
		Variant:     VariantDestructive,
	}
}

func modeNotification(mode core.DataMode) Notification {
	label := "Offline"
	if mode == core.Online {
		label = "Online"
	}
	return Notification{
		Title:       "Modo de Datos Actualizado",
		Description: fmt.Sprintf("Cambiado a modo %s.", label),
		Variant:     VariantDefault,
	}
}

func modeErrorNotification() Notification {
	return Notification{
		Title:       "Error",
		Description: "No se pudo cambiar el modo de datos.",
		Variant:     VariantDestructive,
	}
}

// Package metrics expone contadores Prometheus del dominio de sesión.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginsTotal cuenta logins por resultado: ok | rejected | error.
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Logins procesados por resultado",
	}, []string{"result"})

	// RoleSwitchesTotal cuenta switches de rol por destino y resultado.
	RoleSwitchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_role_switches_total",
		Help: "Switches de rol por destino y resultado",
	}, []string{"target", "result"})

	// RefreshesTotal cuenta rotaciones de refresh token por resultado.
	RefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_refreshes_total",
		Help: "Rotaciones de refresh token por resultado",
	}, []string{"result"})

	// ConsistencyRepairsTotal cuenta degradaciones provider→user aplicadas
	// al detectar drift entre el rol almacenado y el provider record.
	ConsistencyRepairsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_role_consistency_repairs_total",
		Help: "Degradaciones de rol aplicadas por drift de provider record",
	})
)

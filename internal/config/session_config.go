package config

import "time"

const (
	renewalLeadTimeVar = "RENEWAL_LEAD_TIME"
	requestTimeoutVar  = "REQUEST_TIMEOUT"

	DefaultRenewalLeadTime = 60 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
)

type Session struct {
	source
}

var _ SessionConfig = Session{}

// GetRenewalLeadTime is how long before access token expiry a renewal is attempted
func (s Session) GetRenewalLeadTime() time.Duration {
	return s.duration(renewalLeadTimeVar, DefaultRenewalLeadTime)
}

func (s Session) GetRequestTimeout() time.Duration {
	return s.duration(requestTimeoutVar, DefaultRequestTimeout)
}

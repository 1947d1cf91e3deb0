package domain

import "fmt"

// PolicyDecision is the outcome of evaluating one navigation request.
//
// use          - let the navigation proceed
// ignore       - suppress the navigation entirely
// download     - suppress the navigation and hand the URL to downloads
// upgrade-https - reissue the navigation over https
type PolicyDecision uint8

const (
	// DecisionUse lets the navigation proceed.
	DecisionUse PolicyDecision = iota
	// DecisionIgnore suppresses the navigation.
	DecisionIgnore
	// DecisionDownload suppresses the navigation and hands the URL to the
	// download subsystem.
	DecisionDownload
	// DecisionUpgradeHTTPS asks the shell to reissue the request over https.
	DecisionUpgradeHTTPS
)

// String returns a stable string representation of the decision.
func (d PolicyDecision) String() string {
	switch d {
	case DecisionUse:
		return "use"
	case DecisionIgnore:
		return "ignore"
	case DecisionDownload:
		return "download"
	case DecisionUpgradeHTTPS:
		return "upgrade-https"
	default:
		return fmt.Sprintf("PolicyDecision(%d)", d)
	}
}

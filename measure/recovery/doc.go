// Package recovery provides quality metrics for sparse reconstruction,
// comparing a recovered signal against a known reference:
//
//   - MSE: mean squared error across all entries
//   - RelativeError: euclidean error relative to the reference norm
//   - SNR: signal-to-noise ratio in dB
//   - Support: precision and recall of the recovered active set
//
// # Usage
//
//	mse, err := recovery.MSE(recovered, truth)
//	snr := recovery.SNR(truth, recovered)
//	sup, err := recovery.Support(recovered, truth, 1e-9)
//	fmt.Printf("mse %.3g, snr %.1f dB, recall %.2f\n", mse, snr, sup.Recall)
package recovery

package email

const (
	subjectOrderCreatedFmt    = "New order for %s"
	subjectOrderCancelledFmt  = "Order cancelled for %s"
	subjectImportCompletedFmt = "Lead import completed for %s"
)

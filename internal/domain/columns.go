package domain

// Column names shared between the query service, the report files and the
// published tabs. These are an external contract with the partner-facing
// spreadsheets and must not be translated.
const (
	ColTracking       = "Mã"
	ColCustomer       = "Tên khách hàng"
	ColPartner        = "Tên đối tác"
	ColPhone          = "Số điện thoại"
	ColAddress        = "Địa chỉ"
	ColInstruction    = "Hướng dẫn giao hàng"
	ColReason         = "Lý do"
	ColCreated        = "Ngày tạo đơn"
	ColAttempts       = "Số lần giao"
	ColOutcome        = "Kết quả"
	ColNote           = "Ghi chú"
	ColShipperID      = "shipper_id"
	ColInstructionRaw = "Instruction"
)

// RecordColumns is the raw record projection published for records whose
// shipper lookup failed, in this order.
var RecordColumns = []string{
	ColTracking, ColCustomer, ColPhone, ColAddress, ColInstructionRaw,
	ColReason, ColCreated, ColAttempts, ColShipperID,
}

package contracts

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// EscrowABI is the ABI of the Warehouse13 escrow contract
const EscrowABI = `[
	{
		"inputs": [
			{
				"internalType": "uint256",
				"name": "agiId",
				"type": "uint256"
			}
		],
		"name": "viewAGI",
		"outputs": [
			{
				"internalType": "uint8",
				"name": "intentType",
				"type": "uint8"
			},
			{
				"internalType": "address",
				"name": "assetToSell",
				"type": "address"
			},
			{
				"internalType": "uint256",
				"name": "amountToSell",
				"type": "uint256"
			},
			{
				"internalType": "address",
				"name": "assetToBuy",
				"type": "address"
			},
			{
				"internalType": "uint256",
				"name": "orderId",
				"type": "uint256"
			},
			{
				"internalType": "uint8",
				"name": "orderStatus",
				"type": "uint8"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{
				"internalType": "uint256",
				"name": "agiId",
				"type": "uint256"
			}
		],
		"name": "withdrawAsset",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{
				"internalType": "uint256",
				"name": "agiId",
				"type": "uint256"
			},
			{
				"internalType": "uint256",
				"name": "amount",
				"type": "uint256"
			}
		],
		"name": "depositAsset",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "nextOrderId",
		"outputs": [
			{
				"internalType": "uint256",
				"name": "",
				"type": "uint256"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "processedAGIsLength",
		"outputs": [
			{
				"internalType": "uint256",
				"name": "",
				"type": "uint256"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{
				"internalType": "uint256",
				"name": "start",
				"type": "uint256"
			},
			{
				"internalType": "uint256",
				"name": "end",
				"type": "uint256"
			}
		],
		"name": "getProcessedAGIs",
		"outputs": [
			{
				"internalType": "uint256[]",
				"name": "",
				"type": "uint256[]"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{
				"indexed": true,
				"internalType": "uint256",
				"name": "orderId",
				"type": "uint256"
			},
			{
				"indexed": false,
				"internalType": "uint8",
				"name": "intentType",
				"type": "uint8"
			},
			{
				"indexed": false,
				"internalType": "address",
				"name": "assetToSell",
				"type": "address"
			},
			{
				"indexed": false,
				"internalType": "uint256",
				"name": "amountToSell",
				"type": "uint256"
			},
			{
				"indexed": false,
				"internalType": "address",
				"name": "assetToBuy",
				"type": "address"
			}
		],
		"name": "AGIPublished",
		"type": "event"
	}
]`

// EscrowAGIView is the tuple returned by the viewAGI call.
type EscrowAGIView struct {
	IntentType   uint8
	AssetToSell  common.Address
	AmountToSell *big.Int
	AssetToBuy   common.Address
	OrderId      *big.Int
	OrderStatus  uint8
}

// Escrow is an auto generated Go binding around an Ethereum contract.
type Escrow struct {
	EscrowCaller     // Read-only binding to the contract
	EscrowTransactor // Write-only binding to the contract
	EscrowFilterer   // Log filterer for contract events
}

// EscrowCaller is an auto generated read-only Go binding around an Ethereum contract.
type EscrowCaller struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// EscrowTransactor is an auto generated write-only Go binding around an Ethereum contract.
type EscrowTransactor struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// EscrowFilterer is an auto generated log filtering Go binding around an Ethereum contract events.
type EscrowFilterer struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// EscrowSession is an auto generated Go binding around an Ethereum contract,
// with pre-set call and transact options.
type EscrowSession struct {
	Contract     *Escrow           // Generic contract binding to set the session for
	CallOpts     bind.CallOpts     // Call options to use throughout this session
	TransactOpts bind.TransactOpts // Transaction auth options to use throughout this session
}

// EscrowCallerSession is an auto generated read-only Go binding around an Ethereum contract,
// with pre-set call options.
type EscrowCallerSession struct {
	Contract *EscrowCaller // Generic contract caller binding to set the session for
	CallOpts bind.CallOpts // Call options to use throughout this session
}

// EscrowTransactorSession is an auto generated write-only Go binding around an Ethereum contract,
// with pre-set transact options.
type EscrowTransactorSession struct {
	Contract     *EscrowTransactor // Generic contract transactor binding to set the session for
	TransactOpts bind.TransactOpts // Transaction auth options to use throughout this session
}

// NewEscrow creates a new instance of Escrow, bound to a specific deployed contract.
func NewEscrow(address common.Address, backend bind.ContractBackend) (*Escrow, error) {
	contract, err := bindEscrow(address, backend, backend, backend)
	if err != nil {
		return nil, err
	}
	return &Escrow{EscrowCaller: EscrowCaller{contract: contract}, EscrowTransactor: EscrowTransactor{contract: contract}, EscrowFilterer: EscrowFilterer{contract: contract}}, nil
}

// NewEscrowCaller creates a new read-only instance of Escrow, bound to a specific deployed contract.
func NewEscrowCaller(address common.Address, caller bind.ContractCaller) (*EscrowCaller, error) {
	contract, err := bindEscrow(address, caller, nil, nil)
	if err != nil {
		return nil, err
	}
	return &EscrowCaller{contract: contract}, nil
}

// NewEscrowTransactor creates a new write-only instance of Escrow, bound to a specific deployed contract.
func NewEscrowTransactor(address common.Address, transactor bind.ContractTransactor) (*EscrowTransactor, error) {
	contract, err := bindEscrow(address, nil, transactor, nil)
	if err != nil {
		return nil, err
	}
	return &EscrowTransactor{contract: contract}, nil
}

// NewEscrowFilterer creates a new log filterer instance of Escrow, bound to a specific deployed contract.
func NewEscrowFilterer(address common.Address, filterer bind.ContractFilterer) (*EscrowFilterer, error) {
	contract, err := bindEscrow(address, nil, nil, filterer)
	if err != nil {
		return nil, err
	}
	return &EscrowFilterer{contract: contract}, nil
}

// bindEscrow binds a generic wrapper to an already deployed contract.
func bindEscrow(address common.Address, caller bind.ContractCaller, transactor bind.ContractTransactor, filterer bind.ContractFilterer) (*bind.BoundContract, error) {
	parsed, err := abi.JSON(strings.NewReader(EscrowABI))
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, parsed, caller, transactor, filterer), nil
}

// ViewAGI is a free data retrieval call binding the contract method 0x1f34413f.
//
// Solidity: function viewAGI(uint256 agiId) view returns(uint8 intentType, address assetToSell, uint256 amountToSell, address assetToBuy, uint256 orderId, uint8 orderStatus)
func (_Escrow *EscrowCaller) ViewAGI(opts *bind.CallOpts, agiId *big.Int) (EscrowAGIView, error) {
	var out []interface{}
	err := _Escrow.contract.Call(opts, &out, "viewAGI", agiId)

	outstruct := new(EscrowAGIView)
	if err != nil {
		return *outstruct, err
	}

	outstruct.IntentType = *abi.ConvertType(out[0], new(uint8)).(*uint8)
	outstruct.AssetToSell = *abi.ConvertType(out[1], new(common.Address)).(*common.Address)
	outstruct.AmountToSell = *abi.ConvertType(out[2], new(*big.Int)).(**big.Int)
	outstruct.AssetToBuy = *abi.ConvertType(out[3], new(common.Address)).(*common.Address)
	outstruct.OrderId = *abi.ConvertType(out[4], new(*big.Int)).(**big.Int)
	outstruct.OrderStatus = *abi.ConvertType(out[5], new(uint8)).(*uint8)

	return *outstruct, err
}

// ViewAGI is a free data retrieval call binding the contract method 0x1f34413f.
//
// Solidity: function viewAGI(uint256 agiId) view returns(uint8 intentType, address assetToSell, uint256 amountToSell, address assetToBuy, uint256 orderId, uint8 orderStatus)
func (_Escrow *EscrowSession) ViewAGI(agiId *big.Int) (EscrowAGIView, error) {
	return _Escrow.Contract.ViewAGI(&_Escrow.CallOpts, agiId)
}

// NextOrderId is a free data retrieval call binding the contract method 0x1e0197e2.
//
// Solidity: function nextOrderId() view returns(uint256)
func (_Escrow *EscrowCaller) NextOrderId(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	err := _Escrow.contract.Call(opts, &out, "nextOrderId")

	if err != nil {
		return new(big.Int), err
	}

	out0 := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)

	return out0, err
}

// NextOrderId is a free data retrieval call binding the contract method 0x1e0197e2.
//
// Solidity: function nextOrderId() view returns(uint256)
func (_Escrow *EscrowSession) NextOrderId() (*big.Int, error) {
	return _Escrow.Contract.NextOrderId(&_Escrow.CallOpts)
}

// ProcessedAGIsLength is a free data retrieval call binding the contract method 0x8b7afe2e.
//
// Solidity: function processedAGIsLength() view returns(uint256)
func (_Escrow *EscrowCaller) ProcessedAGIsLength(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	err := _Escrow.contract.Call(opts, &out, "processedAGIsLength")

	if err != nil {
		return new(big.Int), err
	}

	out0 := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)

	return out0, err
}

// ProcessedAGIsLength is a free data retrieval call binding the contract method 0x8b7afe2e.
//
// Solidity: function processedAGIsLength() view returns(uint256)
func (_Escrow *EscrowSession) ProcessedAGIsLength() (*big.Int, error) {
	return _Escrow.Contract.ProcessedAGIsLength(&_Escrow.CallOpts)
}

// GetProcessedAGIs is a free data retrieval call binding the contract method 0x23cb2f79.
//
// Solidity: function getProcessedAGIs(uint256 start, uint256 end) view returns(uint256[])
func (_Escrow *EscrowCaller) GetProcessedAGIs(opts *bind.CallOpts, start *big.Int, end *big.Int) ([]*big.Int, error) {
	var out []interface{}
	err := _Escrow.contract.Call(opts, &out, "getProcessedAGIs", start, end)

	if err != nil {
		return *new([]*big.Int), err
	}

	out0 := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)

	return out0, err
}

// GetProcessedAGIs is a free data retrieval call binding the contract method 0x23cb2f79.
//
// Solidity: function getProcessedAGIs(uint256 start, uint256 end) view returns(uint256[])
func (_Escrow *EscrowSession) GetProcessedAGIs(start *big.Int, end *big.Int) ([]*big.Int, error) {
	return _Escrow.Contract.GetProcessedAGIs(&_Escrow.CallOpts, start, end)
}

// WithdrawAsset is a paid mutator transaction binding the contract method 0x2e2d2984.
//
// Solidity: function withdrawAsset(uint256 agiId) returns()
func (_Escrow *EscrowTransactor) WithdrawAsset(opts *bind.TransactOpts, agiId *big.Int) (*types.Transaction, error) {
	return _Escrow.contract.Transact(opts, "withdrawAsset", agiId)
}

// WithdrawAsset is a paid mutator transaction binding the contract method 0x2e2d2984.
//
// Solidity: function withdrawAsset(uint256 agiId) returns()
func (_Escrow *EscrowSession) WithdrawAsset(agiId *big.Int) (*types.Transaction, error) {
	return _Escrow.Contract.WithdrawAsset(&_Escrow.TransactOpts, agiId)
}

// WithdrawAsset is a paid mutator transaction binding the contract method 0x2e2d2984.
//
// Solidity: function withdrawAsset(uint256 agiId) returns()
func (_Escrow *EscrowTransactorSession) WithdrawAsset(agiId *big.Int) (*types.Transaction, error) {
	return _Escrow.Contract.WithdrawAsset(&_Escrow.TransactOpts, agiId)
}

// DepositAsset is a paid mutator transaction binding the contract method 0x68cd03f6.
//
// Solidity: function depositAsset(uint256 agiId, uint256 amount) returns()
func (_Escrow *EscrowTransactor) DepositAsset(opts *bind.TransactOpts, agiId *big.Int, amount *big.Int) (*types.Transaction, error) {
	return _Escrow.contract.Transact(opts, "depositAsset", agiId, amount)
}

// DepositAsset is a paid mutator transaction binding the contract method 0x68cd03f6.
//
// Solidity: function depositAsset(uint256 agiId, uint256 amount) returns()
func (_Escrow *EscrowSession) DepositAsset(agiId *big.Int, amount *big.Int) (*types.Transaction, error) {
	return _Escrow.Contract.DepositAsset(&_Escrow.TransactOpts, agiId, amount)
}

// DepositAsset is a paid mutator transaction binding the contract method 0x68cd03f6.
//
// Solidity: function depositAsset(uint256 agiId, uint256 amount) returns()
func (_Escrow *EscrowTransactorSession) DepositAsset(agiId *big.Int, amount *big.Int) (*types.Transaction, error) {
	return _Escrow.Contract.DepositAsset(&_Escrow.TransactOpts, agiId, amount)
}

// EscrowAGIPublishedIterator is returned from FilterAGIPublished and is used to iterate over the raw logs and unpacked data for AGIPublished events raised by the Escrow contract.
type EscrowAGIPublishedIterator struct {
	Event *EscrowAGIPublished // Event containing the contract specifics and raw log

	contract *bind.BoundContract // Generic contract to use for unpacking event data
	event    string              // Event name to use for unpacking event data

	logs chan types.Log        // Log channel receiving the found contract events
	sub  ethereum.Subscription // Subscription for errors, completion and termination
	done bool                  // Whether the subscription completed delivering logs
	fail error                 // Occurred error to stop iteration
}

// Next advances the iterator to the subsequent event, returning whether there
// are any more events found. In case of a retrieval or parsing error, false is
// returned and Error() can be queried for the exact failure.
func (it *EscrowAGIPublishedIterator) Next() bool {
	// If the iterator failed, stop iterating
	if it.fail != nil {
		return false
	}
	// If the iterator completed, deliver directly whatever's available
	if it.done {
		select {
		case log := <-it.logs:
			it.Event = new(EscrowAGIPublished)
			if err := it.contract.UnpackLog(it.Event, it.event, log); err != nil {
				it.fail = err
				return false
			}
			it.Event.Raw = log
			return true

		default:
			return false
		}
	}
	// Iterator still in progress, wait for either a data or an error event
	select {
	case log := <-it.logs:
		it.Event = new(EscrowAGIPublished)
		if err := it.contract.UnpackLog(it.Event, it.event, log); err != nil {
			it.fail = err
			return false
		}
		it.Event.Raw = log
		return true

	case err := <-it.sub.Err():
		it.done = true
		it.fail = err
		return it.Next()
	}
}

// Error returns any retrieval or parsing error occurred during filtering.
func (it *EscrowAGIPublishedIterator) Error() error {
	return it.fail
}

// Close terminates the iteration process, releasing any pending underlying
// resources.
func (it *EscrowAGIPublishedIterator) Close() error {
	it.sub.Unsubscribe()
	return nil
}

// EscrowAGIPublished represents a AGIPublished event raised by the Escrow contract.
type EscrowAGIPublished struct {
	OrderId      *big.Int
	IntentType   uint8
	AssetToSell  common.Address
	AmountToSell *big.Int
	AssetToBuy   common.Address
	Raw          types.Log // Blockchain specific contextual infos
}

// FilterAGIPublished is a free log retrieval operation binding the contract event 0x6f8aa8e9.
//
// Solidity: event AGIPublished(uint256 indexed orderId, uint8 intentType, address assetToSell, uint256 amountToSell, address assetToBuy)
func (_Escrow *EscrowFilterer) FilterAGIPublished(opts *bind.FilterOpts, orderId []*big.Int) (*EscrowAGIPublishedIterator, error) {
	var orderIdRule []interface{}
	for _, orderIdItem := range orderId {
		orderIdRule = append(orderIdRule, orderIdItem)
	}

	logs, sub, err := _Escrow.contract.FilterLogs(opts, "AGIPublished", orderIdRule)
	if err != nil {
		return nil, err
	}
	return &EscrowAGIPublishedIterator{contract: _Escrow.contract, event: "AGIPublished", logs: logs, sub: sub}, nil
}

// WatchAGIPublished is a free log subscription operation binding the contract event 0x6f8aa8e9.
//
// Solidity: event AGIPublished(uint256 indexed orderId, uint8 intentType, address assetToSell, uint256 amountToSell, address assetToBuy)
func (_Escrow *EscrowFilterer) WatchAGIPublished(opts *bind.WatchOpts, sink chan<- *EscrowAGIPublished, orderId []*big.Int) (event.Subscription, error) {
	var orderIdRule []interface{}
	for _, orderIdItem := range orderId {
		orderIdRule = append(orderIdRule, orderIdItem)
	}

	logs, sub, err := _Escrow.contract.WatchLogs(opts, "AGIPublished", orderIdRule)
	if err != nil {
		return nil, err
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case log := <-logs:
				// New log arrived, parse the event and forward to the user
				event := new(EscrowAGIPublished)
				if err := _Escrow.contract.UnpackLog(event, "AGIPublished", log); err != nil {
					return err
				}
				event.Raw = log

				select {
				case sink <- event:
				case err := <-sub.Err():
					return err
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

// ParseAGIPublished is a log parse operation binding the contract event 0x6f8aa8e9.
//
// Solidity: event AGIPublished(uint256 indexed orderId, uint8 intentType, address assetToSell, uint256 amountToSell, address assetToBuy)
func (_Escrow *EscrowFilterer) ParseAGIPublished(log types.Log) (*EscrowAGIPublished, error) {
	event := new(EscrowAGIPublished)
	if err := _Escrow.contract.UnpackLog(event, "AGIPublished", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}
